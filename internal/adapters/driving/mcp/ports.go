package mcp

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// ErrMissingSessionService is returned by NewServer without a session.
var ErrMissingSessionService = errors.New("mcp: session service is required")

// Ports are the core services the MCP tools and resources call.
type Ports struct {
	Session driving.SessionService
}

// Validate reports a missing session. A nil *Ports is treated as empty.
func (p *Ports) Validate() error {
	if p == nil || p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
