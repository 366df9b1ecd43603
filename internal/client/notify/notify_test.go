package notify

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueue_DrainAndLimit(t *testing.T) {
	q := NewQueue(2)
	q.Notify(Notification{Title: "a"})
	q.Notify(Notification{Title: "b"})
	q.Notify(Notification{Title: "c"})

	got := q.Drain()
	if len(got) != 2 || got[0].Title != "b" || got[1].Title != "c" {
		t.Fatalf("Drain = %+v; want [b c]", got)
	}
	if got[0].At.IsZero() {
		t.Error("Notify must stamp At")
	}
	if len(q.Drain()) != 0 {
		t.Error("second Drain must be empty")
	}
}

func TestLogAndMulti(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	q := NewQueue(0)
	m := Multi{Log{L: zap.New(core)}, q, Nop{}}

	m.Notify(Notification{Title: "Acceso denegado", Variant: Destructive})
	m.Notify(Notification{Title: "ok", Variant: Success})

	if logs.Len() != 2 {
		t.Fatalf("logged %d entries; want 2", logs.Len())
	}
	if logs.All()[0].Level != zap.WarnLevel {
		t.Errorf("destructive must log at warn, got %v", logs.All()[0].Level)
	}
	if len(q.Drain()) != 2 {
		t.Error("queue did not receive both notifications")
	}
}
