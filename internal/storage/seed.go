package storage

import (
	"log"
	"time"

	"qazstep/internal/models"
)

// Seed создает недостающие файлы коллекций со стартовым набором данных.
// Уже существующие файлы не трогаем.
func (s *Store) Seed() error {
	now := time.Now()

	if !s.Exists(Users) {
		if err := s.Write(Users, []models.User{}); err != nil {
			return err
		}
		log.Println("✓ Создан users.json")
	}

	if !s.Exists(Lessons) {
		lessons := []models.Lesson{
			{
				ID:          1,
				Title:       "Знакомство и приветствия",
				Level:       "A1",
				Type:        models.LessonVideo,
				Description: "Учимся здороваться на казахском",
				Duration:    "15 мин",
				Content:     "<h2>Приветствия на казахском</h2><p>Основные фразы для знакомства...</p>",
				Progress:    0,
				Order:       1,
				CreatedAt:   now,
			},
			{
				ID:          2,
				Title:       "Маршруты и транспорт",
				Level:       "A2",
				Type:        models.LessonAudio,
				Description: "Объясняем путь в городе",
				Duration:    "20 мин",
				Content:     "<h2>Как спросить дорогу</h2><p>Основные фразы для навигации...</p>",
				Progress:    0,
				Order:       2,
				CreatedAt:   now,
			},
		}
		if err := s.Write(Lessons, lessons); err != nil {
			return err
		}
		log.Println("✓ Создан lessons.json")
	}

	if !s.Exists(Theories) {
		theories := []models.Theory{
			{
				ID:        1,
				Title:     "Основы алфавита",
				Level:     "A1",
				Category:  "alphabet",
				Content:   "<h2>Казахский алфавит</h2><p>Казахский алфавит состоит из 42 букв...</p>",
				Views:     0,
				CreatedAt: now,
			},
		}
		if err := s.Write(Theories, theories); err != nil {
			return err
		}
		log.Println("✓ Создан theories.json")
	}

	if !s.Exists(Levels) {
		levels := []models.Level{
			{ID: "A1", Name: "Начальный", Description: "Основы языка, базовые фразы", Order: 1, Active: true},
			{ID: "A2", Name: "Элементарный", Description: "Простые диалоги, базовая грамматика", Order: 2, Active: true},
			{ID: "B1", Name: "Средний", Description: "Свободное общение на повседневные темы", Order: 3, Active: true},
			{ID: "B2", Name: "Выше среднего", Description: "Сложные темы, деловое общение", Order: 4, Active: true},
		}
		if err := s.Write(Levels, levels); err != nil {
			return err
		}
		log.Println("✓ Создан levels.json")
	}

	return nil
}
