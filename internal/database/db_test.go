package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/waterdash/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReadings() []models.Reading {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return []models.Reading{
		{ID: "A", UserID: "u1", DeviceID: "d1", IsAtHome: true, Time: base, Consume: 5, TotalConsume: 50},
		{ID: "B", UserID: "u2", DeviceID: "d2", IsAnomalous: true, Time: base.Add(90 * time.Second), Consume: 2.5, TotalConsume: 30},
	}
}

func TestSaveAndGetSnapshot(t *testing.T) {
	db := openTestDB(t)

	snap := &models.Snapshot{Source: "consumes.csv", Spec: `{"range":{}}`}
	require.NoError(t, db.SaveSnapshot(snap, sampleReadings()))
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())
	assert.Equal(t, 2, snap.RowCount)
	assert.Equal(t, 7.5, snap.ConsumeSum)

	got, err := db.GetSnapshot(snap.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, "consumes.csv", got.Source)
	assert.Equal(t, `{"range":{}}`, got.Spec)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.Published)

	readings, err := db.SnapshotReadings(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleReadings(), readings)
}

func TestGetSnapshot_Missing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetSnapshot("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveSnapshot_Empty(t *testing.T) {
	db := openTestDB(t)

	snap := &models.Snapshot{Source: "consumes.csv", Spec: "{}"}
	require.NoError(t, db.SaveSnapshot(snap, nil))

	readings, err := db.SnapshotReadings(snap.ID)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestListAndPublish(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	older := &models.Snapshot{Source: "a.csv", Spec: "{}", CreatedAt: base}
	newer := &models.Snapshot{Source: "b.csv", Spec: "{}", CreatedAt: base.Add(500 * time.Millisecond)}
	require.NoError(t, db.SaveSnapshot(newer, nil))
	require.NoError(t, db.SaveSnapshot(older, nil))

	all, err := db.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	pending, err := db.ListUnpublished()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)

	require.NoError(t, db.MarkPublished(older.ID))
	pending, err = db.ListUnpublished()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, newer.ID, pending[0].ID)

	got, err := db.GetSnapshot(older.ID)
	require.NoError(t, err)
	assert.True(t, got.Published)
}

func TestDeleteSnapshot(t *testing.T) {
	db := openTestDB(t)

	snap := &models.Snapshot{Source: "a.csv", Spec: "{}"}
	require.NoError(t, db.SaveSnapshot(snap, sampleReadings()))
	require.NoError(t, db.DeleteSnapshot(snap.ID))

	got, err := db.GetSnapshot(snap.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	readings, err := db.SnapshotReadings(snap.ID)
	require.NoError(t, err)
	assert.Empty(t, readings)
}
