package alerts

import "context"

// Fanout dispatches alerts to all configured alerters. Alerting is strictly
// best-effort: individual failures are logged and swallowed so an alerting
// outage can never stall or fail an ingestion cycle.
type Fanout struct {
	alerters []Alerter
	log      Logger
}

// NewFanout builds a dispatcher that fans out alerts across alerters.
func NewFanout(alerters []Alerter, log Logger) *Fanout {
	cp := make([]Alerter, 0, len(alerters))
	for _, a := range alerters {
		if a == nil {
			continue
		}
		cp = append(cp, a)
	}
	return &Fanout{alerters: cp, log: ensureLogger(log)}
}

// Notify forwards the alert to every registered alerter, swallowing errors.
func (f *Fanout) Notify(ctx context.Context, alert Alert) {
	if f == nil {
		return
	}
	for _, a := range f.alerters {
		if err := a.Notify(ctx, alert); err != nil {
			f.log.WarnObj("alerter delivery failed", "alerter_error", map[string]any{
				"alerter_id":   a.ID(),
				"alerter_type": a.Type(),
				"error":        err.Error(),
			})
		}
	}
}

// Size returns the number of active alerters.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.alerters)
}
