package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	gdb, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)

	assert.NoError(t, gdb.Exec("SELECT 1").Error)
	assert.NoError(t, Close(gdb))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
