package client

import (
	"errors"
	"log"
	"time"

	"qazstep/internal/models"
	"qazstep/internal/storage"
)

// Локальная коллекция журнала действий (на сервере ее нет).
const actionsCollection = "actions"

// maxActions - сколько последних действий держим в журнале.
const maxActions = 50

// ActionType - закрытый набор типов записей журнала действий.
type ActionType string

const (
	ActionSystem ActionType = "system"
	ActionUser   ActionType = "user"
	ActionLesson ActionType = "lesson"
)

// Action - одна запись локального журнала действий.
type Action struct {
	ID        int64      `json:"id"`
	Action    string     `json:"action"`
	Type      ActionType `json:"type"`
	User      string     `json:"user"`
	Timestamp time.Time  `json:"timestamp"`
}

// Mirror - локальное зеркало серверных коллекций (аналог localStorage
// фронтенда). Это копия, а не второй источник правды: при следующем
// успешном обращении к серверу коллекция перезаписывается целиком.
type Mirror struct {
	store *storage.Store
}

// NewMirror открывает зеркало в каталоге dir.
func NewMirror(dir string) (*Mirror, error) {
	store, err := storage.New(dir)
	if err != nil {
		return nil, err
	}
	return &Mirror{store: store}, nil
}

// read загружает локальную коллекцию; битый файл равносилен пустому.
func (m *Mirror) read(collection string, out any) {
	if err := m.store.Read(collection, out); err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			log.Printf("⚠️ Локальная коллекция %s повреждена: %v", collection, err)
			return
		}
		log.Printf("Ошибка чтения локальной коллекции %s: %v", collection, err)
	}
}

// --- Уроки ---

func (m *Mirror) Lessons() []models.Lesson {
	lessons := []models.Lesson{}
	m.read(storage.Lessons, &lessons)
	return lessons
}

// ReplaceLessons перезаписывает зеркало авторитетным состоянием сервера.
func (m *Mirror) ReplaceLessons(lessons []models.Lesson) error {
	return m.store.Write(storage.Lessons, lessons)
}

// UpsertLesson вставляет урок или заменяет существующий по id.
func (m *Mirror) UpsertLesson(l models.Lesson) error {
	lessons := m.Lessons()
	replaced := false
	for i := range lessons {
		if lessons[i].ID == l.ID {
			lessons[i] = l
			replaced = true
			break
		}
	}
	if !replaced {
		lessons = append(lessons, l)
	}
	return m.store.Write(storage.Lessons, lessons)
}

// RemoveLesson удаляет урок по id (отсутствие - не ошибка).
func (m *Mirror) RemoveLesson(id int64) error {
	lessons := m.Lessons()
	filtered := lessons[:0]
	for _, l := range lessons {
		if l.ID != id {
			filtered = append(filtered, l)
		}
	}
	return m.store.Write(storage.Lessons, filtered)
}

// --- Теории ---

func (m *Mirror) Theories() []models.Theory {
	theories := []models.Theory{}
	m.read(storage.Theories, &theories)
	return theories
}

func (m *Mirror) ReplaceTheories(theories []models.Theory) error {
	return m.store.Write(storage.Theories, theories)
}

func (m *Mirror) UpsertTheory(t models.Theory) error {
	theories := m.Theories()
	replaced := false
	for i := range theories {
		if theories[i].ID == t.ID {
			theories[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		theories = append(theories, t)
	}
	return m.store.Write(storage.Theories, theories)
}

func (m *Mirror) RemoveTheory(id int64) error {
	theories := m.Theories()
	filtered := theories[:0]
	for _, t := range theories {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}
	return m.store.Write(storage.Theories, filtered)
}

// --- Пользователи ---

func (m *Mirror) Users() []models.User {
	users := []models.User{}
	m.read(storage.Users, &users)
	return users
}

func (m *Mirror) ReplaceUsers(users []models.User) error {
	return m.store.Write(storage.Users, users)
}

func (m *Mirror) AppendUser(u models.User) error {
	users := append(m.Users(), u)
	return m.store.Write(storage.Users, users)
}

// --- Уровни ---

func (m *Mirror) Levels() []models.Level {
	levels := []models.Level{}
	m.read(storage.Levels, &levels)
	return levels
}

func (m *Mirror) ReplaceLevels(levels []models.Level) error {
	return m.store.Write(storage.Levels, levels)
}

// --- Журнал действий ---

// RecentActions возвращает журнал, новые записи первыми.
func (m *Mirror) RecentActions() []Action {
	actions := []Action{}
	m.read(actionsCollection, &actions)
	return actions
}

// AddAction дописывает запись в начало журнала, обрезая его до
// maxActions записей.
func (m *Mirror) AddAction(text string, typ ActionType, user string) (Action, error) {
	if user == "" {
		user = "system"
	}
	action := Action{
		ID:        models.NewID(),
		Action:    text,
		Type:      typ,
		User:      user,
		Timestamp: time.Now(),
	}

	actions := append([]Action{action}, m.RecentActions()...)
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	if err := m.store.Write(actionsCollection, actions); err != nil {
		return Action{}, err
	}
	return action, nil
}
