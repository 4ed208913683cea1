// Package attinysim models the ATtiny watchdog register file for host builds
// and service tests. Standard Go builds have no machine I2C, so the simulator
// stands in behind the same drivers.I2C shape the real bus provides.
package attinysim

import (
	"errors"
	"sync"
	"time"

	"watchdogcode-go/drivers/attinywdt"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*Sim)(nil)

var (
	ErrNoAck    = errors.New("attinysim: no ack")
	ErrBadFrame = errors.New("attinysim: malformed transaction")
)

// Version the simulated firmware reports.
const Version = 0x10

// Sim is a register-file simulation of the watchdog chip. Each Tx is atomic;
// per-register faults can be injected to exercise failure paths.
type Sim struct {
	mu   sync.Mutex
	addr uint16
	regs [4]byte

	failWrite [4]bool
	failRead  [4]bool

	timerWrites int
	refreshedAt time.Time

	now func() time.Time // injectable clock for deterministic tests
}

func New(addr uint16) *Sim {
	if addr == 0 {
		addr = attinywdt.AddressDefault
	}
	s := &Sim{addr: addr, now: time.Now}
	s.regs[attinywdt.RegVersion] = Version
	return s
}

// SetClock replaces the simulator clock. Test hook.
func (s *Sim) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailRegister injects a fault for one register in the given directions.
func (s *Sim) FailRegister(reg byte, write, read bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(reg) < len(s.regs) {
		s.failWrite[reg] = write
		s.failRead[reg] = read
	}
}

// SetStatus loads a raw STATUS byte. The simulator attaches no meaning to it,
// matching the chip firmware.
func (s *Sim) SetStatus(v byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[attinywdt.RegStatus] = v
}

// PresetControl arms the chip before any host attaches, as hardware strapping
// or earlier firmware can.
func (s *Sim) PresetControl(v byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[attinywdt.RegControl] = v
	if v != 0 {
		s.refreshedAt = s.now()
	}
}

// Tx implements drivers.I2C: write = reg+value, read = reg then one byte.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr != s.addr {
		return ErrNoAck
	}

	if len(w) == 2 && len(r) == 0 {
		reg, val := w[0], w[1]
		if int(reg) >= len(s.regs) || s.failWrite[reg] {
			return ErrNoAck
		}
		switch reg {
		case attinywdt.RegControl:
			s.regs[reg] = val
			if val != 0 {
				s.refreshedAt = s.now()
			}
		case attinywdt.RegTimer:
			// Refresh pulse: resets both countdown stages. The register reads
			// back the last raw value written.
			s.regs[reg] = val
			s.timerWrites++
			s.refreshedAt = s.now()
		default:
			// VERSION and STATUS are read-only.
			return ErrNoAck
		}
		return nil
	}

	if len(w) == 1 && len(r) == 1 {
		reg := w[0]
		if int(reg) >= len(s.regs) || s.failRead[reg] {
			return ErrNoAck
		}
		r[0] = s.regs[reg]
		return nil
	}

	return ErrBadFrame
}

// ---- Host-side introspection (not visible through the register set) ----

func (s *Sim) Control() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[attinywdt.RegControl]
}

func (s *Sim) TimerWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timerWrites
}

func (s *Sim) enabled() bool {
	return s.regs[attinywdt.RegControl] != 0
}

func (s *Sim) sinceRefresh() time.Duration {
	return s.now().Sub(s.refreshedAt)
}

// AlertAsserted reports whether the first window elapsed without a refresh.
func (s *Sim) AlertAsserted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled() || s.regs[attinywdt.RegControl]&attinywdt.ControlEnableAlert == 0 {
		return false
	}
	return s.sinceRefresh() >= attinywdt.AlertTimeoutSeconds*time.Second
}

// Expired reports whether the second window elapsed: the point where the real
// chip would reset or power-cycle the host.
func (s *Sim) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled() {
		return false
	}
	return s.sinceRefresh() >= attinywdt.RebootTimeoutSeconds*time.Second
}
