package attinywdt

import "watchdogcode-go/x/conv"

// Snapshot holds the four raw register values for inspection. Diagnostics are
// advisory: each field degrades independently when its read fails, and the
// snapshot call itself never fails. STATUS is exposed raw only; its bit
// semantics are a future extension point keyed by VERSION.
type Snapshot struct {
	Version, Control, Timer, Status uint8

	// Per-field validity; false means the register read failed and the value
	// above is meaningless.
	VersionOK, ControlOK, TimerOK, StatusOK bool
}

// Unavailable is the textual marker for a failed register read.
const Unavailable = "--"

func (d *Device) Snapshot() Snapshot {
	var s Snapshot
	d.SnapshotInto(&s)
	return s
}

func (d *Device) SnapshotInto(out *Snapshot) {
	var s Snapshot
	if v, e := d.readReg(RegVersion); e == nil {
		s.Version, s.VersionOK = v, true
	}
	if v, e := d.readReg(RegControl); e == nil {
		s.Control, s.ControlOK = v, true
	}
	if v, e := d.readReg(RegTimer); e == nil {
		s.Timer, s.TimerOK = v, true
	}
	if v, e := d.readReg(RegStatus); e == nil {
		s.Status, s.StatusOK = v, true
	}
	*out = s
}

func field(v uint8, ok bool) string {
	if !ok {
		return Unavailable
	}
	return conv.U8Hex0xString(v)
}

// Format-stable textual register values ("0x%02x" or the unavailable marker).
func (s Snapshot) VersionText() string { return field(s.Version, s.VersionOK) }
func (s Snapshot) ControlText() string { return field(s.Control, s.ControlOK) }
func (s Snapshot) TimerText() string   { return field(s.Timer, s.TimerOK) }
func (s Snapshot) StatusText() string  { return field(s.Status, s.StatusOK) }
