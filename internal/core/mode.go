// Package core is the orchestration layer.  It composes the IRC
// session, the relay sources and the transport into a runnable relay
// and provides a builder that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session, source  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of fifoirc.  It owns its full
// lifecycle from startup to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
