// Package driving defines what the CLI, TUI, HTTP and MCP adapters may ask
// of the core: SessionService for indexing and questions, SettingsService for
// configuration. Implementations live in internal/core/services.
package driving
