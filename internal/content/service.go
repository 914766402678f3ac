package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"qazstep/internal/models"
	"qazstep/internal/storage"
)

// Ошибки доменного уровня. HTTP-слой переводит их в коды ответов,
// все остальное уходит как общий 500.
var (
	ErrValidation   = errors.New("required fields are missing")
	ErrConflict     = errors.New("user already exists")
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("invalid email or password")
)

// Service - единственный писатель поверх Store. Каждая операция - цикл
// "прочитал коллекцию - поменял в памяти - записал коллекцию" под
// мьютексом этой коллекции, чтобы параллельные запросы не затирали
// друг друга.
type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// read загружает коллекцию, превращая поврежденный файл в пустые данные.
// Повреждение логируем отдельно - это не то же самое, что "файла нет".
func (s *Service) read(collection string, out any) error {
	if err := s.store.Read(collection, out); err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			log.Printf("⚠️ Коллекция %s повреждена, работаем с пустой: %v", collection, err)
			return nil
		}
		return err
	}
	return nil
}

// --- Уроки ---

// ListLessons возвращает все уроки, отсортированные по order.
func (s *Service) ListLessons() ([]models.Lesson, error) {
	mu := s.store.Locker(storage.Lessons)
	mu.Lock()
	defer mu.Unlock()

	lessons := []models.Lesson{}
	if err := s.read(storage.Lessons, &lessons); err != nil {
		return nil, err
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Order < lessons[j].Order
	})
	return lessons, nil
}

// CreateLesson создает урок: id = текущее время, progress всегда 0.
func (s *Service) CreateLesson(l models.Lesson) (models.Lesson, error) {
	mu := s.store.Locker(storage.Lessons)
	mu.Lock()
	defer mu.Unlock()

	lessons := []models.Lesson{}
	if err := s.read(storage.Lessons, &lessons); err != nil {
		return models.Lesson{}, err
	}

	now := time.Now()
	l.ID = models.NewID()
	l.Progress = 0
	l.CompletedAt = nil
	l.CreatedAt = now
	l.UpdatedAt = now

	lessons = append(lessons, l)
	if err := s.store.Write(storage.Lessons, lessons); err != nil {
		return models.Lesson{}, err
	}
	return l, nil
}

// UpdateLesson накладывает patch на существующий урок: поля из patch
// побеждают, остальные не меняются. id записи сохраняется, updatedAt
// проставляется заново.
func (s *Service) UpdateLesson(id int64, patch map[string]any) (models.Lesson, error) {
	mu := s.store.Locker(storage.Lessons)
	mu.Lock()
	defer mu.Unlock()

	lessons := []models.Lesson{}
	if err := s.read(storage.Lessons, &lessons); err != nil {
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
		return models.Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrNotFound)
	}

	merged, err := mergePatch(lessons[idx], patch)
	if err != nil {
		return models.Lesson{}, err
	}
	var updated models.Lesson
	if err := json.Unmarshal(merged, &updated); err != nil {
		return models.Lesson{}, fmt.Errorf("apply lesson patch: %w", err)
	}
	updated.ID = id
	updated.UpdatedAt = time.Now()

	lessons[idx] = updated
	if err := s.store.Write(storage.Lessons, lessons); err != nil {
		return models.Lesson{}, err
	}
	return updated, nil
}

// SaveLesson перезаписывает существующий урок целиком. Через него
// движок прогресса сохраняет уроки, уже прочитанные из ListLessons.
func (s *Service) SaveLesson(l models.Lesson) (models.Lesson, error) {
	mu := s.store.Locker(storage.Lessons)
	mu.Lock()
	defer mu.Unlock()

	lessons := []models.Lesson{}
	if err := s.read(storage.Lessons, &lessons); err != nil {
		return models.Lesson{}, err
	}
	for i := range lessons {
		if lessons[i].ID == l.ID {
			l.UpdatedAt = time.Now()
			lessons[i] = l
			if err := s.store.Write(storage.Lessons, lessons); err != nil {
				return models.Lesson{}, err
			}
			return l, nil
		}
	}
	return models.Lesson{}, fmt.Errorf("lesson %d: %w", l.ID, ErrNotFound)
}

// DeleteLesson убирает урок по id. Отсутствие записи ошибкой не считается.
func (s *Service) DeleteLesson(id int64) error {
	mu := s.store.Locker(storage.Lessons)
	mu.Lock()
	defer mu.Unlock()

	lessons := []models.Lesson{}
	if err := s.read(storage.Lessons, &lessons); err != nil {
		return err
	}
	filtered := lessons[:0]
	for _, l := range lessons {
		if l.ID != id {
			filtered = append(filtered, l)
		}
	}
	return s.store.Write(storage.Lessons, filtered)
}

// --- Теории ---

// ListTheories возвращает все теории.
func (s *Service) ListTheories() ([]models.Theory, error) {
	mu := s.store.Locker(storage.Theories)
	mu.Lock()
	defer mu.Unlock()

	theories := []models.Theory{}
	if err := s.read(storage.Theories, &theories); err != nil {
		return nil, err
	}
	return theories, nil
}

// GetTheory возвращает теорию по id и увеличивает счетчик просмотров
// на 1. Инкремент пишется на диск ДО возврата ответа.
func (s *Service) GetTheory(id int64) (models.Theory, error) {
	mu := s.store.Locker(storage.Theories)
	mu.Lock()
	defer mu.Unlock()

	theories := []models.Theory{}
	if err := s.read(storage.Theories, &theories); err != nil {
		return models.Theory{}, err
	}
	for i := range theories {
		if theories[i].ID == id {
			theories[i].Views++
			if err := s.store.Write(storage.Theories, theories); err != nil {
				return models.Theory{}, err
			}
			return theories[i], nil
		}
	}
	return models.Theory{}, fmt.Errorf("theory %d: %w", id, ErrNotFound)
}

// CreateTheory создает теорию: id = текущее время, views всегда 0.
func (s *Service) CreateTheory(t models.Theory) (models.Theory, error) {
	mu := s.store.Locker(storage.Theories)
	mu.Lock()
	defer mu.Unlock()

	theories := []models.Theory{}
	if err := s.read(storage.Theories, &theories); err != nil {
		return models.Theory{}, err
	}

	now := time.Now()
	t.ID = models.NewID()
	t.Views = 0
	t.CreatedAt = now
	t.UpdatedAt = now

	theories = append(theories, t)
	if err := s.store.Write(storage.Theories, theories); err != nil {
		return models.Theory{}, err
	}
	return t, nil
}

// UpdateTheory - то же слияние patch-а, что и у уроков.
func (s *Service) UpdateTheory(id int64, patch map[string]any) (models.Theory, error) {
	mu := s.store.Locker(storage.Theories)
	mu.Lock()
	defer mu.Unlock()

	theories := []models.Theory{}
	if err := s.read(storage.Theories, &theories); err != nil {
		return models.Theory{}, err
	}

	idx := -1
	for i := range theories {
		if theories[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Theory{}, fmt.Errorf("theory %d: %w", id, ErrNotFound)
	}

	merged, err := mergePatch(theories[idx], patch)
	if err != nil {
		return models.Theory{}, err
	}
	var updated models.Theory
	if err := json.Unmarshal(merged, &updated); err != nil {
		return models.Theory{}, fmt.Errorf("apply theory patch: %w", err)
	}
	updated.ID = id
	updated.UpdatedAt = time.Now()

	theories[idx] = updated
	if err := s.store.Write(storage.Theories, theories); err != nil {
		return models.Theory{}, err
	}
	return updated, nil
}

// DeleteTheory убирает теорию по id, отсутствие - не ошибка.
func (s *Service) DeleteTheory(id int64) error {
	mu := s.store.Locker(storage.Theories)
	mu.Lock()
	defer mu.Unlock()

	theories := []models.Theory{}
	if err := s.read(storage.Theories, &theories); err != nil {
		return err
	}
	filtered := theories[:0]
	for _, t := range theories {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}
	return s.store.Write(storage.Theories, filtered)
}

// --- Пользователи ---

// Register создает пользователя. Все три поля обязательны, email
// должен быть свободен. Возвращается запись без пароля.
func (s *Service) Register(name, email, password string) (models.User, error) {
	if name == "" || email == "" || password == "" {
		return models.User{}, ErrValidation
	}

	mu := s.store.Locker(storage.Users)
	mu.Lock()
	defer mu.Unlock()

	users := []models.User{}
	if err := s.read(storage.Users, &users); err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return models.User{}, fmt.Errorf("%s: %w", email, ErrConflict)
		}
	}

	user := models.User{
		ID:        models.NewID(),
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      models.RoleUser,
		Level:     "A1",
		CreatedAt: time.Now(),
	}
	users = append(users, user)
	if err := s.store.Write(storage.Users, users); err != nil {
		return models.User{}, err
	}
	return user.Safe(), nil
}

// Login ищет точное совпадение email+пароль. Возвращается запись
// без пароля.
func (s *Service) Login(email, password string) (models.User, error) {
	mu := s.store.Locker(storage.Users)
	mu.Lock()
	defer mu.Unlock()

	users := []models.User{}
	if err := s.read(storage.Users, &users); err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			return u.Safe(), nil
		}
	}
	return models.User{}, ErrUnauthorized
}

// ListUsers возвращает всех пользователей без паролей.
func (s *Service) ListUsers() ([]models.User, error) {
	mu := s.store.Locker(storage.Users)
	mu.Lock()
	defer mu.Unlock()

	users := []models.User{}
	if err := s.read(storage.Users, &users); err != nil {
		return nil, err
	}
	safe := make([]models.User, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.Safe())
	}
	return safe, nil
}

// --- Уровни ---

// ListLevels возвращает справочник уровней.
func (s *Service) ListLevels() ([]models.Level, error) {
	mu := s.store.Locker(storage.Levels)
	mu.Lock()
	defer mu.Unlock()

	levels := []models.Level{}
	if err := s.read(storage.Levels, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// mergePatch раскладывает существующую запись в map, накладывает сверху
// поля из patch и возвращает результат как JSON.
func mergePatch(existing any, patch map[string]any) ([]byte, error) {
	base, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range patch {
		m[k] = v
	}
	return json.Marshal(m)
}
