package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/five82/looper/internal/errors"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAssignsIDAndTime(t *testing.T) {
	s := openTemp(t)

	rec := &Record{ClipName: "walk", ClipLength: 2, Success: true, Start: 0.5, End: 1.5, Score: 0.97}
	id, err := s.Save(rec)
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, ok, err := s.Latest("walk")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.InDelta(t, 0.97, got.Score, 1e-12)
	assert.True(t, got.Success)
}

func TestHistoryNewestFirst(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		_, err := s.Save(&Record{ClipName: "walk", Score: float64(i), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	_, err := s.Save(&Record{ClipName: "run", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	records, err := s.History("walk", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []float64{4, 3, 2}, []float64{records[0].Score, records[1].Score, records[2].Score})

	all, err := s.History("walk", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	latest, ok, err := s.Latest("run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run", latest.ClipName)
}

func TestLatestMissing(t *testing.T) {
	s := openTemp(t)
	_, ok, err := s.Latest("nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	for range 2 {
		_, err := s.Save(&Record{ClipName: "walk"})
		require.NoError(t, err)
	}
	_, err := s.Save(&Record{ClipName: "run"})
	require.NoError(t, err)

	n, err := s.Delete("walk")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	records, err := s.History("walk", 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = s.History("run", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite3")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(&Record{ClipName: "walk", Score: 0.5})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.History("walk", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNilStore(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())

	_, err := s.Save(&Record{})
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindStore))

	_, err = s.History("walk", 1)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindStore))
}
