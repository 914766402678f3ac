package content_test

import (
	"encoding/json"
	"testing"

	"qazstep/internal/content"
	"qazstep/internal/models"
	"qazstep/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newService(t)

	_, err := src.Register("Айгерим", "aigerim@mail.kz", "secret")
	require.NoError(t, err)
	_, err = src.CreateLesson(models.Lesson{Title: "Знакомство", Order: 1})
	require.NoError(t, err)
	_, err = src.CreateTheory(models.Theory{Title: "Алфавит", Category: "alphabet"})
	require.NoError(t, err)

	snap, err := src.ExportAll()
	require.NoError(t, err)
	assert.False(t, snap.ExportedAt.IsZero())
	// Снимок полный: пароли в нем есть, иначе восстановление их потеряет.
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "secret", snap.Users[0].Password)

	// Снимок проходит через JSON, как при скачивании и загрузке файла.
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var payload content.ImportPayload
	require.NoError(t, json.Unmarshal(data, &payload))

	dst := newService(t)
	require.NoError(t, dst.ImportAll(payload))

	restored, err := dst.ExportAll()
	require.NoError(t, err)
	assert.Equal(t, snap.Users, restored.Users)
	assert.Equal(t, len(snap.Lessons), len(restored.Lessons))
	assert.Equal(t, snap.Lessons[0].Title, restored.Lessons[0].Title)
	assert.Equal(t, snap.Theories[0].Title, restored.Theories[0].Title)
}

func TestImportTouchesOnlyPresentCollections(t *testing.T) {
	svc := newService(t)

	_, err := svc.Register("Айгерим", "aigerim@mail.kz", "secret")
	require.NoError(t, err)

	// Во входе только уроки - пользователи должны уцелеть.
	payload := content.ImportPayload{
		Lessons: json.RawMessage(`[{"id": 1, "title": "импортированный", "order": 1}]`),
	}
	require.NoError(t, svc.ImportAll(payload))

	lessons, err := svc.ListLessons()
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "импортированный", lessons[0].Title)

	users, err := svc.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestImportKeepsRecordsAsIs(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	svc := content.NewService(store)

	// Форма записей не проверяется: что прислали, то и легло на диск.
	payload := content.ImportPayload{
		Levels: json.RawMessage(`[{"id": "A1", "extra": {"nested": true}}]`),
	}
	require.NoError(t, svc.ImportAll(payload))

	raw := []map[string]any{}
	require.NoError(t, store.Read(storage.Levels, &raw))
	require.Len(t, raw, 1)
	assert.Contains(t, raw[0], "extra")
}
