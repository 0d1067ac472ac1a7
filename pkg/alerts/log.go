package alerts

import "context"

// logAlerter writes alerts to the structured log. It is the default channel
// when no alerts file is configured.
type logAlerter struct {
	id  string
	typ string
	log Logger
}

func newLogAlerter(_ context.Context, cfg AlerterConfig, log Logger) (Alerter, error) {
	return &logAlerter{
		id:  cfg.ID,
		typ: TypeLog,
		log: ensureLogger(log),
	}, nil
}

// NewLogAlerter exposes the log alerter for callers wiring a default
// alerting channel without a config file.
func NewLogAlerter(id string, log Logger) Alerter {
	return &logAlerter{id: id, typ: TypeLog, log: ensureLogger(log)}
}

func (l *logAlerter) ID() string   { return l.id }
func (l *logAlerter) Type() string { return l.typ }

func (l *logAlerter) Notify(_ context.Context, alert Alert) error {
	l.log.WarnObj("operator alert", "alert", map[string]any{
		"severity": alert.Severity,
		"text":     alert.Text,
		"at":       alert.At,
	})
	return nil
}
