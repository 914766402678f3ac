package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"qazstep/internal/models"
	"qazstep/internal/storage"
)

// Snapshot - полный дамп всех четырех коллекций. Коллекции читаются
// независимо друг от друга, снимок не обязан быть атомарным.
type Snapshot struct {
	Users      []models.User   `json:"users"`
	Lessons    []models.Lesson `json:"lessons"`
	Theories   []models.Theory `json:"theories"`
	Levels     []models.Level  `json:"levels"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// ImportPayload - входной документ импорта. Коллекции держим сырым
// JSON-ом: ключи, которых нет во входе, не трогают данные на диске,
// а форма записей при импорте не проверяется - что прислали, то и
// сохранили.
type ImportPayload struct {
	Users    json.RawMessage `json:"users"`
	Lessons  json.RawMessage `json:"lessons"`
	Theories json.RawMessage `json:"theories"`
	Levels   json.RawMessage `json:"levels"`
}

// ExportAll собирает снимок всех данных. Пользователи уходят как есть,
// с паролями - иначе экспорт/импорт не был бы обратимым.
func (s *Service) ExportAll() (Snapshot, error) {
	snap := Snapshot{
		Users:      []models.User{},
		Lessons:    []models.Lesson{},
		Theories:   []models.Theory{},
		Levels:     []models.Level{},
		ExportedAt: time.Now(),
	}

	reads := []struct {
		name string
		out  any
	}{
		{storage.Users, &snap.Users},
		{storage.Lessons, &snap.Lessons},
		{storage.Theories, &snap.Theories},
		{storage.Levels, &snap.Levels},
	}
	for _, r := range reads {
		mu := s.store.Locker(r.name)
		mu.Lock()
		err := s.read(r.name, r.out)
		mu.Unlock()
		if err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// ImportAll перезаписывает целиком каждую коллекцию, присутствующую
// во входе.
func (s *Service) ImportAll(p ImportPayload) error {
	collections := []struct {
		name string
		raw  json.RawMessage
	}{
		{storage.Users, p.Users},
		{storage.Lessons, p.Lessons},
		{storage.Theories, p.Theories},
		{storage.Levels, p.Levels},
	}

	for _, c := range collections {
		if len(c.raw) == 0 || bytes.Equal(bytes.TrimSpace(c.raw), []byte("null")) {
			continue
		}
		var v any
		if err := json.Unmarshal(c.raw, &v); err != nil {
			return fmt.Errorf("import %s: %w", c.name, err)
		}
		mu := s.store.Locker(c.name)
		mu.Lock()
		err := s.store.Write(c.name, v)
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}
