package api_helpers

// This flag enables Prometheus export of the phase timings; the timings
// themselves are recorded whenever Input.Perf is set. api.Bundle reads it
// when it creates the Coordinator (and with it the root timer); nothing in
// this repository sets it. It's put here instead of by the timer to
// discourage other code from checking this flag.
var UseTimer bool
