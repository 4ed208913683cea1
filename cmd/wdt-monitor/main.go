// cmd/wdt-monitor/main.go
//
// Tails watchdog diagnostics lines from a board over a serial port.
package main

import (
	"bufio"
	"flag"
	"log"
	"time"

	"github.com/tarm/serial"
)

func main() {
	device := flag.String("device", "/dev/ttyACM0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Parse()

	port, err := serial.OpenPort(&serial.Config{
		Name:        *device,
		Baud:        *baud,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("failed to open serial port %s: %v", *device, err)
	}
	defer port.Close()

	log.Printf("wdt-monitor: listening on %s @ %d", *device, *baud)

	sc := bufio.NewScanner(port)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		log.Print(line)
	}
	if err := sc.Err(); err != nil {
		log.Fatalf("serial read failed: %v", err)
	}
}
