package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := version
	version = v
	t.Cleanup(func() { version = original })
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		args    []string
		want    string
	}{
		{"release", "1.2.0", []string{"version"}, "askdocs 1.2.0, built with " + runtime.Version()},
		{"dev build", "dev", []string{"version"}, "askdocs dev, built with"},
		{"short", "1.2.0", []string{"version", "--short"}, "1.2.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version)

			out, err := executeCommand(t, "", tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVersionCmd_ShortOmitsPlatform(t *testing.T) {
	withVersion(t, "1.2.0")

	out, err := executeCommand(t, "", "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "1.2.0\n", out)
}

func TestVersionString(t *testing.T) {
	withVersion(t, "0.3.1")
	assert.Equal(t, "0.3.1", versionString(true))
	assert.Contains(t, versionString(false), runtime.GOOS+"/"+runtime.GOARCH)
}
