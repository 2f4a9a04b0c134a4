// Package tui is the interactive terminal chat behind `askdocs chat`.
package tui

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// ErrMissingSessionService is returned by NewApp without a session.
var ErrMissingSessionService = errors.New("tui: session service is required")

// Ports are the core services the TUI calls.
type Ports struct {
	Session driving.SessionService
}

// NewPorts wraps session.
func NewPorts(session driving.SessionService) *Ports {
	return &Ports{Session: session}
}

// Validate reports a missing session. A nil *Ports is treated as empty.
func (p *Ports) Validate() error {
	if p == nil || p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
