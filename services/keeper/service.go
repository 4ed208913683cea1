// Package keeper owns the watchdog device at runtime: it arms the chip,
// refreshes the countdown on a cadence strictly below the alert window, and
// exposes arm/disarm/refresh/read over the bus. The chip is deliberately left
// armed on teardown: removing host software must not silently disable a
// safety watchdog.
package keeper

import (
	"context"
	"time"

	"watchdogcode-go/bus"
	"watchdogcode-go/drivers/attinywdt"
	"watchdogcode-go/errcode"
	"watchdogcode-go/types"
)

var (
	topicConfigKeeper = bus.Topic{"config", "keeper"}
	topicCommand      = bus.Topic{"watchdog", "cmd"}
	topicDiag         = bus.Topic{"watchdog", "diag"}
	topicEvent        = bus.Topic{"watchdog", "event"}
)

// DefaultInterval leaves three missed refreshes of headroom inside the
// 64-second alert window.
const DefaultInterval = 16 * time.Second

type Options struct {
	Interval   time.Duration // 0 => DefaultInterval
	ArmOnStart bool
}

type Service struct {
	dev        *attinywdt.Device
	interval   time.Duration
	armOnStart bool
}

func New(dev *attinywdt.Device, opts Options) *Service {
	iv := opts.Interval
	if iv <= 0 || iv >= attinywdt.AlertTimeoutSeconds*time.Second {
		iv = DefaultInterval
	}
	return &Service{
		dev:        dev,
		interval:   iv,
		armOnStart: opts.ArmOnStart,
	}
}

// Start launches the keeper loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigKeeper)
	defer conn.Unsubscribe(cfgSub)
	cmdSub := conn.Subscribe(topicCommand)
	defer conn.Unsubscribe(cmdSub)

	if s.armOnStart {
		if err := s.dev.Arm(); err != nil {
			s.emit(conn, "arm_failed", errcode.MapDriverErr(err))
			println("Error: keeper: arm on start failed:", err.Error())
		} else {
			println("Info: keeper: watchdog armed, timeout", s.dev.TimeoutSeconds(), "sec")
		}
	}
	s.publishDiag(conn)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: keeper service stopping; chip stays armed")
			return

		case <-tick.C:
			if !s.dev.Armed() {
				break
			}
			if err := s.dev.Refresh(); err != nil {
				// Report only; whether repeated failures warrant an emergency
				// shutdown is the host layer's call.
				s.emit(conn, "refresh_failed", errcode.MapDriverErr(err))
				println("Error: keeper: refresh failed:", err.Error())
			}
			s.publishDiag(conn)

		case msg := <-cmdSub.Channel():
			s.handleCommand(conn, msg)

		case msg := <-cfgSub.Channel():
			s.applyConfig(conn, msg.Payload, tick)
		}
	}
}

func (s *Service) handleCommand(conn *bus.Connection, msg *bus.Message) {
	cmd, ok := msg.Payload.(types.Command)
	if !ok {
		if p, ok2 := msg.Payload.(*types.Command); ok2 && p != nil {
			cmd = *p
		} else {
			conn.Reply(msg, types.Result{Error: string(errcode.InvalidParams)}, false)
			return
		}
	}

	var err error
	switch cmd.Verb {
	case types.VerbArm:
		err = s.dev.Arm()
	case types.VerbDisarm:
		err = s.dev.Disarm()
	case types.VerbRefresh:
		err = s.dev.Refresh()
	case types.VerbRead:
		// read is the diagnostics publish below
	default:
		conn.Reply(msg, types.Result{Error: string(errcode.Unsupported)}, false)
		return
	}

	if err != nil {
		code := errcode.MapDriverErr(err)
		s.emit(conn, cmd.Verb+"_failed", code)
		conn.Reply(msg, types.Result{Error: string(code)}, false)
	} else {
		conn.Reply(msg, types.Result{OK: true}, false)
	}
	s.publishDiag(conn)
}

// applyConfig accepts {"interval": seconds} the way the config service
// publishes it. Out-of-range intervals are rejected: the cadence must stay
// strictly below the alert window.
func (s *Service) applyConfig(conn *bus.Connection, payload any, tick *time.Ticker) {
	m, ok := payload.(map[string]any)
	if !ok {
		return
	}
	iv, ok := m["interval"]
	if !ok {
		return
	}
	secs, ok := asSeconds(iv)
	if !ok || secs <= 0 || secs >= attinywdt.AlertTimeoutSeconds {
		s.emit(conn, "config_rejected", errcode.InvalidParams)
		println("Error: keeper: rejected refresh interval")
		return
	}
	s.interval = time.Duration(secs) * time.Second
	tick.Reset(s.interval)
	println("Info: keeper: refresh interval set to", secs, "seconds")
}

func asSeconds(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func (s *Service) publishDiag(conn *bus.Connection) {
	snap := s.dev.Snapshot()
	conn.Publish(conn.NewMessage(topicDiag, types.Diagnostics{
		Version: snap.VersionText(),
		Control: snap.ControlText(),
		Timer:   snap.TimerText(),
		Status:  snap.StatusText(),
		Armed:   s.dev.Armed(),
		TS:      time.Now().UnixNano(),
	}, true))
}

func (s *Service) emit(conn *bus.Connection, tag string, code errcode.Code) {
	conn.Publish(conn.NewMessage(topicEvent, types.Event{
		Tag: tag,
		Err: string(code),
		TS:  time.Now().UnixNano(),
	}, false))
}
