package notifications

import (
	"net/http"
	"time"
)

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
}

// Fanout sends each alert to every configured notifier. A failing
// notifier does not block the others; the first error is returned.
type Fanout []Notifier

func (f Fanout) SendAlert(level, message string) error {
	var firstErr error
	for _, n := range f {
		if err := n.SendAlert(level, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// alertTitle is the bot identity prepended to every outgoing alert.
const alertTitle = "Triple-RSI Bot"

// levelEmoji maps an alert level to its marker. Unknown levels fall
// back to info so an alert is never dropped over a bad level string.
func levelEmoji(level string) string {
	switch level {
	case "warning":
		return "⚠️"
	case "error":
		return "🚨"
	case "success":
		return "✅"
	default:
		return "ℹ️"
	}
}

// newAlertClient builds the HTTP client shared by the webhook
// notifiers. Alerts are fire-and-forget; a hung webhook must not stall
// the caller.
func newAlertClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
