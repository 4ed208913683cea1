package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML bytes for that device
// -----------------------------------------------------------------------------

const cfgWdtHost = `
keeper:
  interval: 16
`

var embeddedConfigs = map[string][]byte{
	"wdt-host": []byte(cfgWdtHost),
}
