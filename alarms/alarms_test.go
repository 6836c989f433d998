package alarms

import (
	"testing"
	"time"

	"rwchcd-core/bus"
	"rwchcd-core/hwerr"
)

func TestBusSinkPublishesAlarm(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(Topic(hwerr.ERStale))
	defer conn.Unsubscribe(sub)

	sink := NewBusSink(conn)
	sink.Raise(hwerr.ERStale, "source A stale")

	select {
	case msg := <-sub.Channel():
		ev, ok := msg.Payload.(Event)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Payload)
		}
		if ev.Code != hwerr.ERStale || ev.Message != "source A stale" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for alarm")
	}
}

func TestNopDoesNothing(t *testing.T) {
	var s Sink = Nop{}
	s.Raise(hwerr.EGeneric, "ignored")
}
