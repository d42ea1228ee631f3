package engine

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryBeginAdmitsExactlyOneUnderContention(t *testing.T) {
	t.Parallel()

	registry := NewOperationRegistry()
	key := OperationKey{Kind: OpPull, Root: "/tmp/wiki"}

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if registry.TryBegin(key) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Fatalf("expected exactly 1 admission, got %d", got)
	}
	if inFlight := registry.InFlight(); len(inFlight) != 1 || inFlight[0] != key {
		t.Fatalf("unexpected in-flight set %v", inFlight)
	}
}

func TestEndReleasesKeyForReuse(t *testing.T) {
	t.Parallel()

	registry := NewOperationRegistry()
	key := OperationKey{Kind: OpPush, Root: "/tmp/wiki"}

	if !registry.TryBegin(key) {
		t.Fatal("first TryBegin must succeed")
	}
	if registry.TryBegin(key) {
		t.Fatal("second TryBegin must fail while in flight")
	}
	registry.End(key)
	if !registry.TryBegin(key) {
		t.Fatal("TryBegin must succeed after End")
	}
}

func TestPullAndPushKeysAreIndependent(t *testing.T) {
	t.Parallel()

	registry := NewOperationRegistry()
	if !registry.TryBegin(OperationKey{Kind: OpPull, Root: "/tmp/wiki"}) {
		t.Fatal("pull key must begin")
	}
	if !registry.TryBegin(OperationKey{Kind: OpPush, Root: "/tmp/wiki"}) {
		t.Fatal("push key must be independent of the pull key")
	}
	if !registry.TryBegin(OperationKey{Kind: OpPull, Root: "/tmp/other"}) {
		t.Fatal("keys for other repositories must be independent")
	}
}
