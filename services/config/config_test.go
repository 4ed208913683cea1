// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"watchdogcode-go/bus"
)

func TestConfig_PublishEmbedded_RetainedPerSection(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "wdt-host" {
			return nil, false
		}
		return []byte(`
mode: dev
nowayout: true
keeper:
  interval: 8
`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	// Arrange bus and service.
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	// Start publisher with device ID in context.
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "wdt-host")
	svc.Start(ctx, conn)

	// Subscribe; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	wantCount := 3 // mode, nowayout, keeper
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) < 2 {
				t.Fatalf("unexpected topic length: %#v", m.Topic)
			}
			if m.Topic[0] != configPrefix {
				t.Fatalf("unexpected prefix: %q", m.Topic[0])
			}
			got[m.Topic[1]] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	if s, ok := got["mode"].(string); !ok || s != "dev" {
		t.Fatalf("mode payload = %#v, want \"dev\"", got["mode"])
	}
	if bval, ok := got["nowayout"].(bool); !ok || bval != true {
		t.Fatalf("nowayout payload = %#v, want true", got["nowayout"])
	}
	if m, ok := got["keeper"].(map[string]any); !ok {
		t.Fatalf("keeper payload type = %T, want map[string]any", got["keeper"])
	} else if iv, ok := m["interval"].(int); !ok || iv != 8 {
		t.Fatalf("keeper.interval = %#v, want 8", m["interval"])
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService()

	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing device ID in context")
	}
}

func TestConfig_PublishConfig_UnknownDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-unknown-device")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "nonesuch")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for unknown device")
	}
}
