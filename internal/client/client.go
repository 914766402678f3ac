package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"qazstep/internal/content"
	"qazstep/internal/models"
)

// Client - офлайн-устойчивый клиент QazStep API. Каждое чтение сначала
// идет в сеть, при любой неудаче (ошибка сети или не-2xx ответ) берется
// локальное зеркало. Каждая запись при неудаче применяется к зеркалу
// напрямую, чтобы локальная картина оставалась цельной; фоновой
// досинхронизации нет - следующий успешный запрос к серверу просто
// перезапишет зеркало его состоянием.
type Client struct {
	baseURL string
	http    *http.Client
	mirror  *Mirror
	dir     string
	session *Session
}

// New создает клиента. baseURL - адрес API (например
// http://localhost:8080/api), cacheDir - каталог локального зеркала.
func New(baseURL, cacheDir string) (*Client, error) {
	mirror, err := NewMirror(cacheDir)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		mirror:  mirror,
		dir:     cacheDir,
		session: OpenSession(cacheDir),
	}, nil
}

// Mirror открывает доступ к локальному зеркалу (для тестов и журнала).
func (c *Client) Mirror() *Mirror { return c.mirror }

// CheckConnection проверяет, жив ли сервер.
func (c *Client) CheckConnection() bool {
	resp, err := c.http.Get(c.baseURL + "/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// do выполняет запрос с JSON-телом и разбирает JSON-ответ в out.
// Не-2xx статус считается ошибкой.
func (c *Client) do(method, path string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session.Active() && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- Уроки ---

// ListLessons читает уроки с сервера, при неудаче - из зеркала.
// Успешный ответ сервера перезаписывает зеркало целиком.
func (c *Client) ListLessons() ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	if err := c.do(http.MethodGet, "/lessons", nil, &lessons); err != nil {
		log.Printf("Ошибка загрузки уроков, берем локальную копию: %v", err)
		return c.mirror.Lessons(), nil
	}
	if err := c.mirror.ReplaceLessons(lessons); err != nil {
		log.Printf("Не удалось обновить зеркало уроков: %v", err)
	}
	return lessons, nil
}

// SaveLesson создает урок (без id) или обновляет существующий (с id).
// При недоступном сервере изменение применяется к зеркалу: новой
// записи выдается локальный id.
func (c *Client) SaveLesson(l models.Lesson) (models.Lesson, error) {
	var (
		saved models.Lesson
		err   error
	)
	if l.ID != 0 {
		err = c.do(http.MethodPut, fmt.Sprintf("/lessons/%d", l.ID), l, &saved)
	} else {
		err = c.do(http.MethodPost, "/lessons", l, &saved)
	}
	if err == nil {
		if merr := c.mirror.UpsertLesson(saved); merr != nil {
			log.Printf("Не удалось обновить зеркало уроков: %v", merr)
		}
		return saved, nil
	}

	log.Printf("Ошибка сохранения урока, пишем локально: %v", err)
	if l.ID == 0 {
		l.ID = models.NewID()
		l.CreatedAt = time.Now()
	}
	l.UpdatedAt = time.Now()
	if merr := c.mirror.UpsertLesson(l); merr != nil {
		return models.Lesson{}, merr
	}
	return l, nil
}

// DeleteLesson удаляет урок на сервере, при неудаче - из зеркала.
func (c *Client) DeleteLesson(id int64) error {
	if err := c.do(http.MethodDelete, fmt.Sprintf("/lessons/%d", id), nil, nil); err != nil {
		log.Printf("Ошибка удаления урока, удаляем локально: %v", err)
		return c.mirror.RemoveLesson(id)
	}
	if err := c.mirror.RemoveLesson(id); err != nil {
		log.Printf("Не удалось обновить зеркало уроков: %v", err)
	}
	return nil
}

// --- Теории ---

func (c *Client) ListTheories() ([]models.Theory, error) {
	theories := []models.Theory{}
	if err := c.do(http.MethodGet, "/theories", nil, &theories); err != nil {
		log.Printf("Ошибка загрузки теорий, берем локальную копию: %v", err)
		return c.mirror.Theories(), nil
	}
	if err := c.mirror.ReplaceTheories(theories); err != nil {
		log.Printf("Не удалось обновить зеркало теорий: %v", err)
	}
	return theories, nil
}

// GetTheory открывает теорию для чтения (сервер засчитывает просмотр).
// В офлайне просмотр засчитывается в зеркале, чтобы локальная картина
// оставалась цельной.
func (c *Client) GetTheory(id int64) (models.Theory, error) {
	var theory models.Theory
	if err := c.do(http.MethodGet, fmt.Sprintf("/theories/%d", id), nil, &theory); err != nil {
		log.Printf("Ошибка загрузки теории, берем локальную копию: %v", err)
		for _, t := range c.mirror.Theories() {
			if t.ID == id {
				t.Views++
				if merr := c.mirror.UpsertTheory(t); merr != nil {
					return models.Theory{}, merr
				}
				return t, nil
			}
		}
		return models.Theory{}, fmt.Errorf("theory %d: %w", id, content.ErrNotFound)
	}
	if err := c.mirror.UpsertTheory(theory); err != nil {
		log.Printf("Не удалось обновить зеркало теорий: %v", err)
	}
	return theory, nil
}

func (c *Client) SaveTheory(t models.Theory) (models.Theory, error) {
	var (
		saved models.Theory
		err   error
	)
	if t.ID != 0 {
		err = c.do(http.MethodPut, fmt.Sprintf("/theories/%d", t.ID), t, &saved)
	} else {
		err = c.do(http.MethodPost, "/theories", t, &saved)
	}
	if err == nil {
		if merr := c.mirror.UpsertTheory(saved); merr != nil {
			log.Printf("Не удалось обновить зеркало теорий: %v", merr)
		}
		return saved, nil
	}

	log.Printf("Ошибка сохранения теории, пишем локально: %v", err)
	if t.ID == 0 {
		t.ID = models.NewID()
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = time.Now()
	if merr := c.mirror.UpsertTheory(t); merr != nil {
		return models.Theory{}, merr
	}
	return t, nil
}

func (c *Client) DeleteTheory(id int64) error {
	if err := c.do(http.MethodDelete, fmt.Sprintf("/theories/%d", id), nil, nil); err != nil {
		log.Printf("Ошибка удаления теории, удаляем локально: %v", err)
		return c.mirror.RemoveTheory(id)
	}
	if err := c.mirror.RemoveTheory(id); err != nil {
		log.Printf("Не удалось обновить зеркало теорий: %v", err)
	}
	return nil
}

// --- Пользователи и сессия ---

func (c *Client) ListUsers() ([]models.User, error) {
	users := []models.User{}
	if err := c.do(http.MethodGet, "/users", nil, &users); err != nil {
		log.Printf("Ошибка загрузки пользователей, берем локальную копию: %v", err)
		return c.mirror.Users(), nil
	}
	if err := c.mirror.ReplaceUsers(users); err != nil {
		log.Printf("Не удалось обновить зеркало пользователей: %v", err)
	}
	return users, nil
}

// authResponse - ответ сервера на вход/регистрацию.
type authResponse struct {
	models.User
	Token string `json:"token"`
}

// Register регистрирует пользователя через API; если сервер недоступен,
// регистрирует локально в зеркале. Ошибка показывается пользователю
// только когда и локальный путь не сработал.
func (c *Client) Register(name, email, password string) (models.User, error) {
	var resp authResponse
	err := c.do(http.MethodPost, "/users/register", Credentials{
		Name: name, Email: email, Password: password,
	}, &resp)
	if err == nil {
		c.openSession(resp.User, resp.Token)
		if merr := c.mirror.AppendUser(resp.User); merr != nil {
			log.Printf("Не удалось обновить зеркало пользователей: %v", merr)
		}
		c.AddRecentAction(fmt.Sprintf("Зарегистрирован новый пользователь: %s", name), ActionUser)
		return resp.User, nil
	}

	log.Printf("API недоступен, регистрируем локально: %v", err)
	if name == "" || email == "" || password == "" {
		return models.User{}, content.ErrValidation
	}
	users := c.mirror.Users()
	for _, u := range users {
		if u.Email == email {
			return models.User{}, fmt.Errorf("%s: %w", email, content.ErrConflict)
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
	if merr := c.mirror.AppendUser(user); merr != nil {
		return models.User{}, merr
	}
	safe := user.Safe()
	c.openSession(safe, "")
	c.AddRecentAction(fmt.Sprintf("Зарегистрирован новый пользователь: %s", name), ActionUser)
	return safe, nil
}

// Login входит через API, при недоступном сервере ищет точное
// совпадение email+пароль в зеркале.
func (c *Client) Login(email, password string) (models.User, error) {
	var resp authResponse
	err := c.do(http.MethodPost, "/users/login", Credentials{
		Email: email, Password: password,
	}, &resp)
	if err == nil {
		c.openSession(resp.User, resp.Token)
		return resp.User, nil
	}

	log.Printf("API недоступен, проверяем локально: %v", err)
	for _, u := range c.mirror.Users() {
		if u.Email == email && u.Password == password {
			safe := u.Safe()
			c.openSession(safe, "")
			return safe, nil
		}
	}
	return models.User{}, content.ErrUnauthorized
}

// Logout закрывает сессию.
func (c *Client) Logout() error {
	if c.session.Active() {
		c.AddRecentAction(fmt.Sprintf("Пользователь %s вышел из системы", c.session.User.Name), ActionUser)
	}
	return c.session.Clear(c.dir)
}

// CurrentUser возвращает пользователя текущей сессии.
func (c *Client) CurrentUser() (models.User, bool) {
	if !c.session.Active() {
		return models.User{}, false
	}
	return c.session.User, true
}

func (c *Client) openSession(user models.User, token string) {
	c.session.User = user
	c.session.Token = token
	if err := c.session.Save(c.dir); err != nil {
		log.Printf("Не удалось сохранить сессию: %v", err)
	}
}

// Credentials - тело запросов регистрации и входа.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Журнал действий (только локальный) ---

func (c *Client) RecentActions() []Action {
	return c.mirror.RecentActions()
}

// AddRecentAction пишет запись в локальный журнал от имени текущего
// пользователя (или "system").
func (c *Client) AddRecentAction(text string, typ ActionType) {
	userName := ""
	if user, ok := c.CurrentUser(); ok {
		userName = user.Name
	}
	if _, err := c.mirror.AddAction(text, typ, userName); err != nil {
		log.Printf("Не удалось записать действие: %v", err)
	}
}

// --- Синхронизация ---

// SyncAll подтягивает все серверные коллекции в зеркало разом.
// Возвращает false, если сервер недоступен и работа продолжается
// в автономном режиме.
func (c *Client) SyncAll() bool {
	if !c.CheckConnection() {
		log.Println("Работаем в автономном режиме (локальное зеркало)")
		return false
	}
	if _, err := c.ListUsers(); err != nil {
		return false
	}
	if _, err := c.ListLessons(); err != nil {
		return false
	}
	if _, err := c.ListTheories(); err != nil {
		return false
	}

	levels := []models.Level{}
	if err := c.do(http.MethodGet, "/levels", nil, &levels); err != nil {
		log.Printf("Ошибка загрузки уровней: %v", err)
		return false
	}
	if err := c.mirror.ReplaceLevels(levels); err != nil {
		log.Printf("Не удалось обновить зеркало уровней: %v", err)
	}
	return true
}
