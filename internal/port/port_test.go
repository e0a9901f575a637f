package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/pizzeria/core"
)

// freePort returns a port that was free a moment ago
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	p := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return p
}

func TestResolvePrecedence(t *testing.T) {
	logger := &core.NoOpLogger{}
	cfgPort := freePort(t)

	tests := []struct {
		name       string
		env        string
		flag       int
		deployment Environment
		wantPort   int
		wantSource string
	}{
		{"flag wins over PORT", "9999", 7000, EnvLocal, 7000, SourceFlag},
		{"PORT wins over config", "9999", 0, EnvLocal, 9999, SourceEnv},
		{"invalid PORT falls back to config", "abc", 0, EnvLocal, cfgPort, SourceConfig},
		{"config when free", "", 0, EnvLocal, cfgPort, SourceConfig},
		{"container keeps config port", "", 0, EnvKubernetes, cfgPort, SourceContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.env)
			d := resolve(tt.flag, cfgPort, tt.deployment, logger)
			assert.Equal(t, tt.wantPort, d.Port)
			assert.Equal(t, tt.wantSource, d.Source)
			assert.Equal(t, tt.deployment, d.Environment)
		})
	}
}

func TestResolveSkipsBusyPort(t *testing.T) {
	t.Setenv("PORT", "")

	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := busy.Addr().(*net.TCPAddr).Port

	d := resolve(0, busyPort, EnvLocal, &core.NoOpLogger{})
	assert.NotEqual(t, busyPort, d.Port)
	assert.Contains(t, []string{SourceAuto, SourceOS}, d.Source)
	assert.True(t, Available(d.Port))
}

func TestDecisionAddresses(t *testing.T) {
	d := Decision{Port: 8081}
	assert.Equal(t, ":8081", d.Address())
	assert.Equal(t, "http://localhost:8081", d.URL())
}
