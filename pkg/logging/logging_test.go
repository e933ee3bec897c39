package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsProductionLogger(t *testing.T) {
	logger, err := New("info", false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("test entry")
}

func TestNewBuildsDevelopmentLogger(t *testing.T) {
	logger, err := New("debug", true)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New("not-a-level", false)
	assert.Error(t, err)
}
