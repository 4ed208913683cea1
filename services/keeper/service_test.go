package keeper

import (
	"context"
	"testing"
	"time"

	"watchdogcode-go/bus"
	"watchdogcode-go/drivers/attinywdt"
	"watchdogcode-go/drivers/attinywdt/attinysim"
	"watchdogcode-go/types"
)

func startKeeper(t *testing.T, cfg attinywdt.Config, opts Options) (*attinysim.Sim, *bus.Bus, context.CancelFunc) {
	t.Helper()
	sim := attinysim.New(0)
	dev := attinywdt.New(sim, cfg)
	b := bus.NewBus(16)

	ctx, cancel := context.WithCancel(context.Background())
	svc := New(dev, opts)
	if err := svc.Start(ctx, b.NewConnection("keeper")); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}

	// The first retained diagnostic is published after the keeper's
	// subscriptions are in place; wait for it so commands cannot race startup.
	conn := b.NewConnection("startup-probe")
	sub := conn.Subscribe(bus.Topic{"watchdog", "diag"})
	select {
	case <-sub.Channel():
	case <-time.After(time.Second):
		cancel()
		t.Fatal("keeper did not publish startup diagnostics")
	}
	conn.Unsubscribe(sub)

	return sim, b, cancel
}

func request(t *testing.T, conn *bus.Connection, verb string) types.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := conn.RequestWait(ctx, conn.NewMessage(bus.Topic{"watchdog", "cmd"}, types.Command{Verb: verb}, false))
	if err != nil {
		t.Fatalf("RequestWait(%s): %v", verb, err)
	}
	res, ok := reply.Payload.(types.Result)
	if !ok {
		t.Fatalf("reply payload: %#v", reply.Payload)
	}
	return res
}

func TestKeeper_ArmOnStartAndPeriodicRefresh(t *testing.T) {
	sim, b, cancel := startKeeper(t, attinywdt.DefaultConfig(),
		Options{Interval: 20 * time.Millisecond, ArmOnStart: true})
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for sim.TimerWrites() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// One pulse from Arm, the rest from the ticker.
	if n := sim.TimerWrites(); n < 3 {
		t.Fatalf("timer writes = %d, want ticker-driven refreshes", n)
	}
	if got := sim.Control(); got != attinywdt.ControlEnablePowerCycle|attinywdt.ControlEnableAlert {
		t.Fatalf("CONTROL = 0x%02x", got)
	}

	// Retained diagnostics reach a late subscriber.
	conn := b.NewConnection("observer")
	sub := conn.Subscribe(bus.Topic{"watchdog", "diag"})
	defer conn.Unsubscribe(sub)
	select {
	case msg := <-sub.Channel():
		diag, ok := msg.Payload.(types.Diagnostics)
		if !ok {
			t.Fatalf("diag payload: %#v", msg.Payload)
		}
		if !diag.Armed {
			t.Fatal("diagnostics report disarmed after arm-on-start")
		}
		if diag.Control != "0x06" {
			t.Fatalf("diag control = %q", diag.Control)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained diagnostics")
	}
}

func TestKeeper_CommandLifecycle(t *testing.T) {
	sim, b, cancel := startKeeper(t, attinywdt.DefaultConfig(),
		Options{Interval: time.Second})
	defer cancel()

	conn := b.NewConnection("admin")

	if res := request(t, conn, types.VerbRefresh); res.OK || res.Error != "not_armed" {
		t.Fatalf("refresh while disarmed: %+v", res)
	}
	if res := request(t, conn, types.VerbArm); !res.OK {
		t.Fatalf("arm: %+v", res)
	}
	if res := request(t, conn, types.VerbRefresh); !res.OK {
		t.Fatalf("refresh: %+v", res)
	}
	if res := request(t, conn, types.VerbRead); !res.OK {
		t.Fatalf("read: %+v", res)
	}
	if res := request(t, conn, types.VerbDisarm); !res.OK {
		t.Fatalf("disarm: %+v", res)
	}
	if got := sim.Control(); got != 0 {
		t.Fatalf("CONTROL after disarm = 0x%02x", got)
	}
	if res := request(t, conn, "reboot"); res.OK || res.Error != "unsupported" {
		t.Fatalf("unknown verb: %+v", res)
	}
}

func TestKeeper_NoWayOut(t *testing.T) {
	sim, b, cancel := startKeeper(t, attinywdt.Config{NoWayOut: true},
		Options{Interval: time.Second, ArmOnStart: true})
	defer cancel()

	conn := b.NewConnection("admin")
	evSub := conn.Subscribe(bus.Topic{"watchdog", "event"})
	defer conn.Unsubscribe(evSub)

	if res := request(t, conn, types.VerbDisarm); res.OK || res.Error != "locked" {
		t.Fatalf("disarm under no-way-out: %+v", res)
	}
	if got := sim.Control(); got == 0 {
		t.Fatal("locked disarm cleared CONTROL")
	}

	select {
	case msg := <-evSub.Channel():
		ev, ok := msg.Payload.(types.Event)
		if !ok {
			t.Fatalf("event payload: %#v", msg.Payload)
		}
		if ev.Tag != "disarm_failed" || ev.Err != "locked" {
			t.Fatalf("event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no degraded event for locked disarm")
	}
}

func TestKeeper_ConfigIntervalRejected(t *testing.T) {
	_, b, cancel := startKeeper(t, attinywdt.DefaultConfig(),
		Options{Interval: time.Second})
	defer cancel()

	conn := b.NewConnection("cfg")
	evSub := conn.Subscribe(bus.Topic{"watchdog", "event"})
	defer conn.Unsubscribe(evSub)

	// The cadence must stay strictly below the alert window.
	conn.Publish(conn.NewMessage(bus.Topic{"config", "keeper"},
		map[string]any{"interval": attinywdt.AlertTimeoutSeconds}, false))

	select {
	case msg := <-evSub.Channel():
		ev, ok := msg.Payload.(types.Event)
		if !ok {
			t.Fatalf("event payload: %#v", msg.Payload)
		}
		if ev.Tag != "config_rejected" {
			t.Fatalf("event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no rejection event for out-of-range interval")
	}
}
