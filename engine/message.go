package engine

// Severity classifies a user-visible message.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Message is what background workers hand the foreground dispatcher: a text
// line with a severity, or the reserved reload control value asking the
// interactive side to check whether the open buffer changed on disk.
type Message struct {
	Text     string
	Severity Severity
	Reload   bool
}

func InfoMessage(text string) Message {
	return Message{Text: text, Severity: SeverityInfo}
}

func ErrorMessage(text string) Message {
	return Message{Text: text, Severity: SeverityError}
}

func ReloadMessage() Message {
	return Message{Reload: true}
}
