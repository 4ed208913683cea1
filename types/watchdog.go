// Package types holds the payload shapes exchanged over the bus.
package types

// Command verbs accepted by the keeper.
const (
	VerbArm     = "arm"
	VerbDisarm  = "disarm"
	VerbRefresh = "refresh"
	VerbRead    = "read"
)

// Command asks the keeper to perform one watchdog operation.
type Command struct {
	Verb string
}

// Result answers a Command over its reply topic.
type Result struct {
	OK    bool
	Error string // errcode string; empty when OK
}

// Diagnostics is the retained observable register surface. Register values
// are format-stable text: "0x%02x" or the unavailable marker.
type Diagnostics struct {
	Version string
	Control string
	Timer   string
	Status  string
	Armed   bool
	TS      int64 // unix nanos
}

// Event is a tagged keeper occurrence, degraded or informational.
type Event struct {
	Tag string
	Err string // errcode string; empty for informational events
	TS  int64  // unix nanos
}
