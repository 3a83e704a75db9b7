package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/logger"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	l, sync, err := logger.New(true, "warn")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.NotNil(t, sync)

	_, _, err = logger.New(false, "chatty")
	assert.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, logger.OrDiscard(nil))
	l, _, err := logger.New(false, "")
	require.NoError(t, err)
	assert.Same(t, l, logger.OrDiscard(l))
}
