package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleInstanceGuard(t *testing.T) {
	first, err := AcquireSingleInstance("FocusDeck-guard-test", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Address())

	_, err = AcquireSingleInstance("FocusDeck-guard-test", nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, first.Release())

	second, err := AcquireSingleInstance("FocusDeck-guard-test", nil)
	require.NoError(t, err, "releasing the lock must free the port")
	require.NoError(t, second.Release())
}

func TestReleaseNilGuard(t *testing.T) {
	var guard *InstanceGuard
	assert.NoError(t, guard.Release())
	assert.Empty(t, guard.Address())
}
