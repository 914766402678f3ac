package models

import (
	"sync"
	"time"
)

// LessonType - закрытый набор типов урока. Никаких других значений
// в данных быть не должно.
type LessonType string

const (
	LessonVideo    LessonType = "video"
	LessonAudio    LessonType = "audio"
	LessonTheory   LessonType = "theory"
	LessonPractice LessonType = "practice"
)

// Valid проверяет, что тип урока входит в закрытый набор.
func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonAudio, LessonTheory, LessonPractice:
		return true
	}
	return false
}

// DisplayName возвращает русское название типа урока.
func (t LessonType) DisplayName() string {
	switch t {
	case LessonVideo:
		return "Видео"
	case LessonAudio:
		return "Аудио"
	case LessonTheory:
		return "Теория"
	case LessonPractice:
		return "Практика"
	}
	return string(t)
}

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User - пользователь. Пароль хранится открытым текстом, наружу он
// никогда не отдается.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// Safe возвращает копию пользователя без пароля.
func (u User) Safe() User {
	u.Password = ""
	return u
}

// Lesson - один урок. Поле order задает порядок показа и разблокировки,
// progress меняется движком прогресса (0..100, 100 = завершен).
type Lesson struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Level       string     `json:"level"`
	Type        LessonType `json:"type"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	Content     string     `json:"content"`
	Progress    int        `json:"progress"`
	Order       int        `json:"order"`
	MediaFileID string     `json:"mediaFileId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Theory - теоретический материал. views растет на 1 при каждом
// открытии и никогда не уменьшается.
type Theory struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Level       string    `json:"level"`
	Category    string    `json:"category"`
	Content     string    `json:"content"`
	Views       int       `json:"views"`
	ImageFileID string    `json:"imageFileId,omitempty"`
	MediaFileID string    `json:"mediaFileId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Level представляет один уровень (A1, A2, B1, B2).
type Level struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Active      bool   `json:"active"`
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID выдает id как отметку времени создания в миллисекундах
// (аналог Date.now()). Два создания в одну миллисекунду получают
// соседние значения, так что id монотонно растет и не повторяется
// в пределах процесса.
func NewID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
