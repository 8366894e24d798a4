package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sub", "punchr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "punchr.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punchr.db")
	for i := 0; i < 3; i++ {
		db, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, db.Close())
	}
}

func TestState_RoundTrip(t *testing.T) {
	db := openTemp(t)

	_, ok, err := db.GetState("timeRecords")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SetState("timeRecords", "[]"))
	require.NoError(t, db.SetState("timeRecords", `[{"id":1}]`))

	v, ok, err := db.GetState("timeRecords")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, db.DeleteState("timeRecords"))
	_, ok, err = db.GetState("timeRecords")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestState_KeysByPrefix(t *testing.T) {
	db := openTemp(t)

	require.NoError(t, db.SetState("journey_alert_2026-10-13", "x"))
	require.NoError(t, db.SetState("journey_alert_2026-10-12", "x"))
	require.NoError(t, db.SetState("timeRecords", "[]"))

	keys, err := db.StateKeys("journey_alert_")
	require.NoError(t, err)
	assert.Equal(t, []string{"journey_alert_2026-10-12", "journey_alert_2026-10-13"}, keys)
}

func TestState_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punchr.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SetState("timeTrackerSettings", `{"dailyHours":6}`))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.GetState("timeTrackerSettings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"dailyHours":6}`, v)
}

func TestMemory_FailWrites(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SetState("a", "1"))

	boom := errors.New("quota exceeded")
	m.FailWrites = boom
	assert.ErrorIs(t, m.SetState("a", "2"), boom)

	v, _, _ := m.GetState("a")
	assert.Equal(t, "1", v)
}
