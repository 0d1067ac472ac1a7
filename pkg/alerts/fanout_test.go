package alerts

import (
	"context"
	"errors"
	"testing"
)

type fakeAlerter struct {
	id     string
	err    error
	alerts []Alert
}

func (f *fakeAlerter) ID() string   { return f.id }
func (f *fakeAlerter) Type() string { return "fake" }
func (f *fakeAlerter) Notify(_ context.Context, alert Alert) error {
	f.alerts = append(f.alerts, alert)
	return f.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	a := &fakeAlerter{id: "a"}
	b := &fakeAlerter{id: "b"}
	f := NewFanout([]Alerter{a, nil, b}, nil)

	if f.Size() != 2 {
		t.Fatalf("Size = %d, want 2 (nil dropped)", f.Size())
	}

	f.Notify(context.Background(), Warning("flood wait 30s"))
	if len(a.alerts) != 1 || len(b.alerts) != 1 {
		t.Fatalf("alert not fanned out: a=%d b=%d", len(a.alerts), len(b.alerts))
	}
}

func TestFanoutSwallowsAlerterFailure(t *testing.T) {
	bad := &fakeAlerter{id: "bad", err: errors.New("boom")}
	good := &fakeAlerter{id: "good"}
	f := NewFanout([]Alerter{bad, good}, nil)

	// Must not panic or block; the failing alerter never prevents the rest.
	f.Notify(context.Background(), Warning("x"))
	if len(good.alerts) != 1 {
		t.Fatalf("good alerter skipped after failure")
	}
}

func TestNilFanoutIsSafe(t *testing.T) {
	var f *Fanout
	f.Notify(context.Background(), Warning("x"))
	if f.Size() != 0 {
		t.Fatalf("nil fanout size should be 0")
	}
}
