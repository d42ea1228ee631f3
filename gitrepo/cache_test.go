package gitrepo

import (
	"errors"
	"sync"
	"testing"
)

type stubRepository struct {
	Repository
	root string
}

func TestCacheReturnsOneHandlePerRoot(t *testing.T) {
	t.Parallel()

	opens := 0
	cache := NewCache(func(dir string) (Repository, error) {
		opens++
		return &stubRepository{root: dir}, nil
	})

	first, err := cache.Open("/tmp/wiki")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := cache.Open("/tmp/wiki")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached handle on the second open")
	}
	if opens != 1 {
		t.Fatalf("expected a single underlying open, got %d", opens)
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	cache := NewCache(func(dir string) (Repository, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("not a repository yet")
		}
		return &stubRepository{root: dir}, nil
	})

	if _, err := cache.Open("/tmp/wiki"); err == nil {
		t.Fatal("expected first open to fail")
	}
	if _, err := cache.Open("/tmp/wiki"); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 open attempts, got %d", calls)
	}
}

func TestCacheConcurrentOpens(t *testing.T) {
	t.Parallel()

	opens := 0
	cache := NewCache(func(dir string) (Repository, error) {
		opens++
		return &stubRepository{root: dir}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Open("/tmp/wiki"); err != nil {
				t.Errorf("Open: %v", err)
			}
		}()
	}
	wg.Wait()

	if opens != 1 {
		t.Fatalf("expected a single underlying open under contention, got %d", opens)
	}
}

func TestCacheReset(t *testing.T) {
	t.Parallel()

	opens := 0
	cache := NewCache(func(dir string) (Repository, error) {
		opens++
		return &stubRepository{root: dir}, nil
	})

	if _, err := cache.Open("/tmp/wiki"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	cache.Reset()
	if _, err := cache.Open("/tmp/wiki"); err != nil {
		t.Fatalf("Open after reset: %v", err)
	}
	if opens != 2 {
		t.Fatalf("expected re-open after reset, got %d opens", opens)
	}
}
