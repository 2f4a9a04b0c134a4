package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	tests := []struct {
		name        string
		ports       *Ports
		opts        []Option
		wantErr     error
		wantVersion string
	}{
		{name: "missing session", ports: &Ports{}, wantErr: ErrMissingSessionService},
		{name: "nil ports", ports: nil, wantErr: ErrMissingSessionService},
		{name: "default version", ports: &Ports{Session: &mockSessionService{}}, wantVersion: "dev"},
		{
			name:        "explicit version",
			ports:       &Ports{Session: &mockSessionService{}},
			opts:        []Option{WithVersion("1.4.0")},
			wantVersion: "1.4.0",
		},
		{
			name:        "empty version keeps default",
			ports:       &Ports{Session: &mockSessionService{}},
			opts:        []Option{WithVersion("")},
			wantVersion: "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.ports, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, server)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, server.version)
		})
	}
}

func TestServer_HandlerRejectsPlainGET(t *testing.T) {
	server, err := NewServer(&Ports{Session: &mockSessionService{}})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	// A GET outside an initialized session is refused.
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
}

func TestInstructions(t *testing.T) {
	assert.Contains(t, Instructions, `"ask"`)
	assert.Contains(t, Instructions, "askdocs://status")
}
