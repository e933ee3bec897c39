package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/nottherealalanturing/stellar-fee-tracker/pkg/config"
)

func TestBuildProviderSelectsReplayByKind(t *testing.T) {
	cfg = appconfig.Default()
	cfg.Provider.Kind = "replay"
	cfg.Provider.ReplayFile = writeTestFixture(t)

	provider, closeFn, err := buildProvider()
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, "replay", provider.Name())
}

func TestBuildProviderSelectsJSONRPCByDefault(t *testing.T) {
	cfg = appconfig.Default()
	cfg.Provider.Kind = "jsonrpc"
	cfg.Provider.Endpoint = "http://localhost:9999"

	provider, closeFn, err := buildProvider()
	require.NoError(t, err)
	defer closeFn()

	assert.Contains(t, provider.Name(), "jsonrpc")
}

func TestBuildEmitterFallsBackToNopWithoutDSN(t *testing.T) {
	cfg = appconfig.Default()
	cfg.Database.DSN = ""

	emitter, closeFn, err := buildEmitter()
	require.NoError(t, err)
	defer closeFn()

	assert.NotNil(t, emitter)
}

func writeTestFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/fixture.csv"
	content := "100,2024-01-01T00:00:00Z,hash-a,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
