// cmd/wdtd/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchdogcode-go/bus"
	"watchdogcode-go/drivers/attinywdt"
	"watchdogcode-go/drivers/attinywdt/attinysim"
	"watchdogcode-go/hostcfg"
	"watchdogcode-go/services/config"
	"watchdogcode-go/services/keeper"
	"watchdogcode-go/types"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: wdtd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := hostcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Register channel
	// --------------------

	// Standard Go builds carry no machine I2C; the register-file simulator
	// stands in behind the same drivers.I2C shape the physical bus provides.
	ch := attinysim.New(cfg.Watchdog.Addr)

	wcfg := attinywdt.Config{
		Address:  cfg.Watchdog.Addr,
		NoWayOut: cfg.Watchdog.NoWayOut,
	}
	var dev *attinywdt.Device
	if cfg.Watchdog.Reconcile {
		dev, err = attinywdt.NewAuto(ch, wcfg)
		if err != nil {
			log.Fatalf("watchdog attach failed: %v", err)
		}
	} else {
		dev = attinywdt.New(ch, wcfg)
	}

	// --------------------
	// Services
	// --------------------

	b := bus.NewBus(16)

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, "wdt-host")
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))

	svc := keeper.New(dev, keeper.Options{
		Interval:   time.Duration(cfg.Keeper.IntervalS) * time.Second,
		ArmOnStart: cfg.Keeper.ArmOnStart,
	})
	if err := svc.Start(ctx, b.NewConnection("keeper")); err != nil {
		log.Fatalf("keeper start failed: %v", err)
	}

	// Mirror diagnostics and degraded events to the log.
	obs := b.NewConnection("wdtd")
	diagSub := obs.Subscribe(bus.Topic{"watchdog", "diag"})
	evSub := obs.Subscribe(bus.Topic{"watchdog", "event"})

	log.Printf("wdtd: attached watchdog at 0x%02x, refresh every %d s (nowayout=%v)",
		cfg.Watchdog.Addr, cfg.Keeper.IntervalS, cfg.Watchdog.NoWayOut)

	for {
		select {
		case <-ctx.Done():
			// The chip stays armed: removing the daemon must not silently
			// disable a safety watchdog.
			log.Print("wdtd: shutting down; watchdog left running")
			return
		case msg := <-diagSub.Channel():
			if d, ok := msg.Payload.(types.Diagnostics); ok {
				log.Printf("wdtd: diag version=%s control=%s timer=%s status=%s armed=%v",
					d.Version, d.Control, d.Timer, d.Status, d.Armed)
			}
		case msg := <-evSub.Channel():
			if e, ok := msg.Payload.(types.Event); ok {
				log.Printf("wdtd: event %s err=%s", e.Tag, e.Err)
			}
		}
	}
}
