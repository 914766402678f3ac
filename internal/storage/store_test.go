package storage

import (
	"os"
	"path/filepath"
	"testing"

	"qazstep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestReadMissingFile(t *testing.T) {
	s := newStore(t)

	lessons := []models.Lesson{}
	err := s.Read(Lessons, &lessons)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newStore(t)

	in := []models.Lesson{
		{ID: 1, Title: "Знакомство", Order: 1, Progress: 40},
		{ID: 2, Title: "Маршруты", Order: 2},
	}
	require.NoError(t, s.Write(Lessons, in))

	out := []models.Lesson{}
	require.NoError(t, s.Read(Lessons, &out))
	assert.Equal(t, in, out)
}

func TestReadEmptyFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lessons.json"), []byte("  \n"), 0o644))

	lessons := []models.Lesson{}
	require.NoError(t, s.Read(Lessons, &lessons))
	assert.Empty(t, lessons)
}

func TestReadCorruptFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lessons.json"), []byte("{не json"), 0o644))

	lessons := []models.Lesson{}
	err := s.Read(Lessons, &lessons)
	require.ErrorIs(t, err, ErrCorrupt)
	// Поврежденный файл и отсутствующий различимы, но данные в обоих
	// случаях пустые.
	assert.Empty(t, lessons)
}

func TestWriteReplacesWholeFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(Levels, []models.Level{{ID: "A1"}, {ID: "A2"}}))
	require.NoError(t, s.Write(Levels, []models.Level{{ID: "B1"}}))

	levels := []models.Level{}
	require.NoError(t, s.Read(Levels, &levels))
	require.Len(t, levels, 1)
	assert.Equal(t, "B1", levels[0].ID)
}

func TestLockerSameMutexPerCollection(t *testing.T) {
	s := newStore(t)
	assert.Same(t, s.Locker(Lessons), s.Locker(Lessons))
	assert.NotSame(t, s.Locker(Lessons), s.Locker(Users))
}

func TestSeedCreatesMissingCollections(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Seed())

	lessons := []models.Lesson{}
	require.NoError(t, s.Read(Lessons, &lessons))
	assert.Len(t, lessons, 2)

	levels := []models.Level{}
	require.NoError(t, s.Read(Levels, &levels))
	assert.Len(t, levels, 4)

	// Повторный Seed существующие файлы не трогает.
	require.NoError(t, s.Write(Lessons, []models.Lesson{}))
	require.NoError(t, s.Seed())
	lessons = nil
	require.NoError(t, s.Read(Lessons, &lessons))
	assert.Empty(t, lessons)
}
