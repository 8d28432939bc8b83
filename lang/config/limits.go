// Package config defines the tunable resource limits a State enforces, read
// from the process environment the way the rest of the pack's command-line
// tools source their settings (§4.6 of the component design).
package config

import "github.com/caarlos0/env/v6"

// Limits bounds the resources a single State may consume: stack depth, call
// nesting, locals and upvalues per function, constants per chunk, the
// allocation threshold that triggers garbage collection, and the
// metamethod re-entry depth (§4.2 boundary behaviors, §4.4, §4.5).
type Limits struct {
	MaxStack           int   `env:"JACINTHE_MAX_STACK" envDefault:"4096"`
	MaxCallDepth       int   `env:"JACINTHE_MAX_CALL_DEPTH" envDefault:"256"`
	MaxLocals          int   `env:"JACINTHE_MAX_LOCALS" envDefault:"256"`
	MaxUpvalues        int   `env:"JACINTHE_MAX_UPVALUES" envDefault:"256"`
	MaxConstants       int   `env:"JACINTHE_MAX_CONSTANTS" envDefault:"65536"`
	GCTrigger          int64 `env:"JACINTHE_GC_TRIGGER" envDefault:"1048576"`
	MetaRecursionDepth int   `env:"JACINTHE_META_DEPTH" envDefault:"64"`
}

// Default returns the limits that apply when no environment overrides are
// present.
func Default() Limits {
	l := Limits{}
	// env.Parse never fails against a struct containing only scalar fields
	// with valid envDefault tags and no required ones.
	_ = env.Parse(&l)
	return l
}

// FromEnviron parses Limits from the current process environment, applying
// envDefault values for anything unset.
func FromEnviron() (Limits, error) {
	var l Limits
	if err := env.Parse(&l); err != nil {
		return Limits{}, err
	}
	return l, nil
}
