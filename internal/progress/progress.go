package progress

import (
	"fmt"
	"math"
	"time"

	"qazstep/internal/content"
	"qazstep/internal/models"
)

// LessonStore - источник уроков для движка. Его реализуют и серверный
// сервис контента, и офлайн-клиент, так что разблокировка и прогресс
// считаются одинаково по обе стороны сети.
type LessonStore interface {
	ListLessons() ([]models.Lesson, error)
	SaveLesson(l models.Lesson) (models.Lesson, error)
}

// Engine двигает прогресс по упорядоченной последовательности уроков.
type Engine struct {
	lessons LessonStore
}

func NewEngine(lessons LessonStore) *Engine {
	return &Engine{lessons: lessons}
}

// Unlocked: урок с индексом i доступен, если он первый или предыдущий
// пройден на 100%.
func Unlocked(lessons []models.Lesson, i int) bool {
	if i == 0 {
		return true
	}
	if i < 0 || i >= len(lessons) {
		return false
	}
	return lessons[i-1].Progress == 100
}

// CourseProgress - общий прогресс курса: round(сумма progress / число
// уроков). Без уроков - 0.
func CourseProgress(lessons []models.Lesson) int {
	if len(lessons) == 0 {
		return 0
	}
	sum := 0
	for _, l := range lessons {
		sum += l.Progress
	}
	return int(math.Round(float64(sum) / float64(len(lessons))))
}

// SectionStats считает завершенные уроки (progress = 100) и процент
// завершения секции. Без уроков оба значения нулевые.
func SectionStats(lessons []models.Lesson) (completed, percent int) {
	for _, l := range lessons {
		if l.Progress == 100 {
			completed++
		}
	}
	if len(lessons) == 0 {
		return 0, 0
	}
	percent = int(math.Round(100 * float64(completed) / float64(len(lessons))))
	return completed, percent
}

// Complete завершает урок: progress = 100, ставится completedAt.
// Если следующий по порядку урок еще не начат (progress = 0), ему
// приоткрывается доступ - progress поднимается до 10. Оба изменения
// сохраняются.
func (e *Engine) Complete(id int64) (models.Lesson, error) {
	lessons, err := e.lessons.ListLessons()
	if err != nil {
		return models.Lesson{}, err
	}

	idx := -1
	for i := range lessons {
		if lessons[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Lesson{}, fmt.Errorf("lesson %d: %w", id, content.ErrNotFound)
	}

	now := time.Now()
	lessons[idx].Progress = 100
	lessons[idx].CompletedAt = &now

	saved, err := e.lessons.SaveLesson(lessons[idx])
	if err != nil {
		return models.Lesson{}, err
	}

	if next := idx + 1; next < len(lessons) && lessons[next].Progress == 0 {
		lessons[next].Progress = 10
		if _, err := e.lessons.SaveLesson(lessons[next]); err != nil {
			return models.Lesson{}, err
		}
	}
	return saved, nil
}

// Visit отмечает открытие страницы незавершенного урока: +10 к
// прогрессу, но не выше 100. Завершенный урок не трогаем.
func (e *Engine) Visit(id int64) (models.Lesson, error) {
	lessons, err := e.lessons.ListLessons()
	if err != nil {
		return models.Lesson{}, err
	}

	for i := range lessons {
		if lessons[i].ID != id {
			continue
		}
		if lessons[i].Progress >= 100 {
			return lessons[i], nil
		}
		lessons[i].Progress = min(lessons[i].Progress+10, 100)
		return e.lessons.SaveLesson(lessons[i])
	}
	return models.Lesson{}, fmt.Errorf("lesson %d: %w", id, content.ErrNotFound)
}
