// Package mode derives the runtime mode (sandbox or live) of a request.
package mode

import (
	"fmt"
	"strings"
)

// Mode selects which provider credentials and data store serve a request.
type Mode int

const (
	Live Mode = iota
	Sandbox
)

// sandboxPrefixes are matched on whole path segments.
var sandboxPrefixes = []string{"/sandbox", "/api/sandbox"}

// Detect returns Sandbox when path starts with a sandbox prefix, Live otherwise.
func Detect(path string) Mode {
	for _, p := range sandboxPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return Sandbox
		}
	}
	return Live
}

func (m Mode) String() string {
	if m == Sandbox {
		return "sandbox"
	}
	return "live"
}

// Parse accepts "live" or "sandbox" (case-insensitive).
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live", "":
		return Live, nil
	case "sandbox":
		return Sandbox, nil
	}
	return Live, fmt.Errorf("unknown mode %q", s)
}

// All lists every mode, live first.
func All() []Mode { return []Mode{Live, Sandbox} }
