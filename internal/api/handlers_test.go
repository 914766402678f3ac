package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"qazstep/internal/api"
	"qazstep/internal/content"
	"qazstep/internal/models"
	"qazstep/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	svc := content.NewService(store)

	r := mux.NewRouter()
	handler := api.NewApiHandler(svc, []byte("test_secret_key_for_unit_tests_32b"))
	handler.SetupRoutes(r)
	return r
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestStatus(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := map[string]string{}
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["time"])
	assert.NotEmpty(t, resp["message"])
}

func TestLessonCRUD(t *testing.T) {
	r := newTestRouter(t)

	// Создание: id выдан, progress принудительно 0.
	w := doJSON(t, r, http.MethodPost, "/api/lessons", models.Lesson{
		Title: "Знакомство", Level: "A1", Type: models.LessonVideo, Order: 1, Progress: 77,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created models.Lesson
	decode(t, w, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 0, created.Progress)

	// Обновление несуществующего - 404.
	w = doJSON(t, r, http.MethodPut, "/api/lessons/999", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Patch побеждает только в присланных полях.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lessons/%d", created.ID),
		map[string]any{"progress": 40})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Lesson
	decode(t, w, &updated)
	assert.Equal(t, 40, updated.Progress)
	assert.Equal(t, "Знакомство", updated.Title)

	// Список отсортирован по order.
	w = doJSON(t, r, http.MethodPost, "/api/lessons", models.Lesson{Title: "нулевой", Order: 0})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/lessons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lessons []models.Lesson
	decode(t, w, &lessons)
	require.Len(t, lessons, 2)
	assert.Equal(t, "нулевой", lessons[0].Title)

	// Удаление.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/lessons/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := map[string]bool{}
	decode(t, w, &resp)
	assert.True(t, resp["success"])
}

func TestTheoryViewCounter(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/theories", models.Theory{Title: "Алфавит", Level: "A1"})
	require.Equal(t, http.StatusOK, w.Code)
	var created models.Theory
	decode(t, w, &created)
	assert.Equal(t, 0, created.Views)

	for want := 1; want <= 3; want++ {
		w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/theories/%d", created.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got models.Theory
		decode(t, w, &got)
		assert.Equal(t, want, got.Views)
	}

	w = doJSON(t, r, http.MethodGet, "/api/theories/123456", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(t)

	// Неполные поля - 400.
	w := doJSON(t, r, http.MethodPost, "/api/users/register",
		map[string]string{"name": "Айгерим", "email": "aigerim@mail.kz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Успешная регистрация: пароля в ответе нет, токен есть.
	w = doJSON(t, r, http.MethodPost, "/api/users/register",
		map[string]string{"name": "Айгерим", "email": "aigerim@mail.kz", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := map[string]any{}
	decode(t, w, &resp)
	_, hasPassword := resp["password"]
	assert.False(t, hasPassword)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "user", resp["role"])
	assert.Equal(t, "A1", resp["level"])

	// Повторный email - 400.
	w = doJSON(t, r, http.MethodPost, "/api/users/register",
		map[string]string{"name": "Другая", "email": "aigerim@mail.kz", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Неверный пароль - 401.
	w = doJSON(t, r, http.MethodPost, "/api/users/login",
		map[string]string{"email": "aigerim@mail.kz", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Верные данные - пользователь без пароля.
	w = doJSON(t, r, http.MethodPost, "/api/users/login",
		map[string]string{"email": "aigerim@mail.kz", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = map[string]any{}
	decode(t, w, &resp)
	_, hasPassword = resp["password"]
	assert.False(t, hasPassword)
	assert.Equal(t, "Айгерим", resp["name"])

	// Список пользователей - тоже без паролей.
	w = doJSON(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	decode(t, w, &users)
	require.Len(t, users, 1)
	_, hasPassword = users[0]["password"]
	assert.False(t, hasPassword)
}

func TestProgressEndpoints(t *testing.T) {
	r := newTestRouter(t)

	var ids []int64
	for i := 1; i <= 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/lessons", models.Lesson{Title: "урок", Order: i})
		require.Equal(t, http.StatusOK, w.Code)
		var l models.Lesson
		decode(t, w, &l)
		ids = append(ids, l.ID)
	}

	// Завершаем первый - второй приоткрывается.
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/lessons/%d/complete", ids[0]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var done models.Lesson
	decode(t, w, &done)
	assert.Equal(t, 100, done.Progress)
	assert.NotNil(t, done.CompletedAt)

	w = doJSON(t, r, http.MethodGet, "/api/lessons", nil)
	var lessons []models.Lesson
	decode(t, w, &lessons)
	assert.Equal(t, 10, lessons[1].Progress)
	assert.Equal(t, 0, lessons[2].Progress)

	// Визит добавляет 10.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/lessons/%d/visit", ids[1]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visited models.Lesson
	decode(t, w, &visited)
	assert.Equal(t, 20, visited.Progress)

	// Сводка: round((100+20+0)/3) = 40, завершен 1 из 3.
	w = doJSON(t, r, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := map[string]int{}
	decode(t, w, &stats)
	assert.Equal(t, 40, stats["progress"])
	assert.Equal(t, 1, stats["completed"])
	assert.Equal(t, 3, stats["total"])
	assert.Equal(t, 33, stats["percent"])
}

func TestExportImport(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lessons", models.Lesson{Title: "Знакомство", Order: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	var snap map[string]json.RawMessage
	decode(t, w, &snap)
	assert.Contains(t, snap, "users")
	assert.Contains(t, snap, "lessons")
	assert.Contains(t, snap, "theories")
	assert.Contains(t, snap, "levels")
	assert.Contains(t, snap, "exportedAt")

	// Импортируем снимок во вторую инсталляцию.
	other := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(w.Body.Bytes()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	other.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w2 := doJSON(t, other, http.MethodGet, "/api/lessons", nil)
	var lessons []models.Lesson
	decode(t, w2, &lessons)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Знакомство", lessons[0].Title)
}
