package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/oxhq/astir/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect(":memory:", false)
	require.NoError(t, err)
	return NewStore(db)
}

func TestSessionLifecycle(t *testing.T) {
	store := newStore(t)

	session, err := store.BeginSession("/src/project")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	_, err = uuid.Parse(session.ID)
	assert.NoError(t, err)
	assert.Nil(t, session.EndedAt)

	require.NoError(t, store.EndSession(session, 10, 8, 2))

	var stored models.Session
	require.NoError(t, store.db.First(&stored, "id = ?", session.ID).Error)
	assert.Equal(t, "/src/project", stored.Root)
	assert.Equal(t, 10, stored.ScannedCount)
	assert.Equal(t, 8, stored.LiftedCount)
	assert.Equal(t, 2, stored.FailedCount)
	assert.NotNil(t, stored.EndedAt)
}

func TestSaveAndFindByDigest(t *testing.T) {
	store := newStore(t)

	snap := &models.Snapshot{
		Path:      "main.py",
		Language:  "python",
		Digest:    "aabbcc",
		IR:        datatypes.JSON(`{"tag":"container"}`),
		NodeCount: 7,
		Depth:     3,
	}
	require.NoError(t, store.SaveSnapshot(snap))
	require.NotEmpty(t, snap.ID)

	found, err := store.FindByDigest("aabbcc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, snap.ID, found.ID)
	assert.Equal(t, "python", found.Language)
	assert.Equal(t, 7, found.NodeCount)
	assert.JSONEq(t, `{"tag":"container"}`, string(found.IR))
}

func TestFindByDigestMiss(t *testing.T) {
	store := newStore(t)

	found, err := store.FindByDigest("deadbeef")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestHistory(t *testing.T) {
	store := newStore(t)

	for _, digest := range []string{"d1", "d2", "d3"} {
		require.NoError(t, store.SaveSnapshot(&models.Snapshot{
			Path:     "lib.go",
			Language: "go",
			Digest:   digest,
		}))
	}
	require.NoError(t, store.SaveSnapshot(&models.Snapshot{
		Path:     "other.go",
		Language: "go",
		Digest:   "d4",
	}))

	snaps, err := store.History("lib.go", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for _, snap := range snaps {
		assert.Equal(t, "lib.go", snap.Path)
	}

	limited, err := store.History("lib.go", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
