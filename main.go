package main

import (
	"time"

	"watchdogcode-go/drivers/attinywdt"
	"watchdogcode-go/drivers/attinywdt/attinysim"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	// Smoke loop against the simulated chip: arm once, then refresh well
	// inside the alert window and echo the register surface.
	dev := attinywdt.New(attinysim.New(0), attinywdt.DefaultConfig())
	if err := dev.Arm(); err != nil {
		println("Error: arm:", err.Error())
		return
	}
	println("watchdog armed, timeout", dev.TimeoutSeconds(), "sec")

	tick := time.NewTicker(16 * time.Second)
	defer tick.Stop()

	for t := range tick.C {
		if err := dev.Refresh(); err != nil {
			println("Error:", t.Format("15:04:05"), "refresh:", err.Error())
			continue
		}
		s := dev.Snapshot()
		println(t.Format("15:04:05"), "ping",
			"version="+s.VersionText(), "control="+s.ControlText(),
			"timer="+s.TimerText(), "status="+s.StatusText())
	}
}
