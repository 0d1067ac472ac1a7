package alerts

import (
	"context"
	"time"
)

// Alert is one human-readable operational notification.
type Alert struct {
	Severity string    `json:"severity"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Alert severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Warning builds a warning-level alert stamped now.
func Warning(text string) Alert {
	return Alert{Severity: SeverityWarning, Text: text, At: time.Now().UTC()}
}

// Info builds an info-level alert stamped now.
func Info(text string) Alert {
	return Alert{Severity: SeverityInfo, Text: text, At: time.Now().UTC()}
}

// Alerter posts alerts to one operational channel (webhook, SQS, etc).
type Alerter interface {
	ID() string
	Type() string
	Notify(ctx context.Context, alert Alert) error
}

// Logger defines the logging surface alerters rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
