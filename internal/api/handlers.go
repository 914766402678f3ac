package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"qazstep/internal/content"
	"qazstep/internal/models"
	"qazstep/internal/progress"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// ApiHandler хранит сервисы и ключ подписи токенов.
type ApiHandler struct {
	Content *content.Service
	Engine  *progress.Engine
	jwtKey  []byte
}

// NewApiHandler создает обработчик поверх сервиса контента.
func NewApiHandler(svc *content.Service, jwtKey []byte) *ApiHandler {
	return &ApiHandler{
		Content: svc,
		Engine:  progress.NewEngine(svc),
		jwtKey:  jwtKey,
	}
}

// Claims - данные внутри JWT-токена сессии.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// authResponse - пользователь без пароля плюс токен сессии.
type authResponse struct {
	models.User
	Token string `json:"token"`
}

// Credentials - JSON-тело запросов регистрации и входа.
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Status отвечает на проверку соединения.
func (h *ApiHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"message": "QazStep API работает",
	})
}

// --- Уроки ---

func (h *ApiHandler) GetLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.Content.ListLessons()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, lessons)
}

func (h *ApiHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var lesson models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	created, err := h.Content.CreateLesson(lesson)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, created)
}

func (h *ApiHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lesson ID")
		return
	}
	patch := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	updated, err := h.Content.UpdateLesson(id, patch)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Урок не найден")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ApiHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lesson ID")
		return
	}
	if err := h.Content.DeleteLesson(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CompleteLesson завершает урок и приоткрывает следующий.
func (h *ApiHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lesson ID")
		return
	}
	lesson, err := h.Engine.Complete(id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Урок не найден")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, lesson)
}

// VisitLesson отмечает открытие страницы урока (+10 к прогрессу).
func (h *ApiHandler) VisitLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lesson ID")
		return
	}
	lesson, err := h.Engine.Visit(id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Урок не найден")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, lesson)
}

// GetProgress отдает сводку по курсу: общий прогресс и счетчик
// завершенных уроков.
func (h *ApiHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.Content.ListLessons()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	completed, percent := progress.SectionStats(lessons)
	respondWithJSON(w, http.StatusOK, map[string]int{
		"progress":  progress.CourseProgress(lessons),
		"completed": completed,
		"total":     len(lessons),
		"percent":   percent,
	})
}

// --- Теории ---

func (h *ApiHandler) GetTheories(w http.ResponseWriter, r *http.Request) {
	theories, err := h.Content.ListTheories()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, theories)
}

// GetTheory возвращает теорию и засчитывает просмотр.
func (h *ApiHandler) GetTheory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid theory ID")
		return
	}
	theory, err := h.Content.GetTheory(id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Теория не найдена")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, theory)
}

func (h *ApiHandler) CreateTheory(w http.ResponseWriter, r *http.Request) {
	var theory models.Theory
	if err := json.NewDecoder(r.Body).Decode(&theory); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	created, err := h.Content.CreateTheory(theory)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, created)
}

func (h *ApiHandler) UpdateTheory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid theory ID")
		return
	}
	patch := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	updated, err := h.Content.UpdateTheory(id, patch)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Теория не найдена")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ApiHandler) DeleteTheory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid theory ID")
		return
	}
	if err := h.Content.DeleteTheory(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Пользователи ---

func (h *ApiHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Content.ListUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *ApiHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	user, err := h.Content.Register(creds.Name, creds.Email, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrValidation):
			respondWithError(w, http.StatusBadRequest, "Все поля обязательны")
		case errors.Is(err, content.ErrConflict):
			respondWithError(w, http.StatusBadRequest, "Пользователь уже существует")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *ApiHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	user, err := h.Content.Login(creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, content.ErrUnauthorized) {
			respondWithError(w, http.StatusUnauthorized, "Неверный email или пароль")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// --- Уровни ---

func (h *ApiHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Content.ListLevels()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, levels)
}

// --- Экспорт / импорт ---

func (h *ApiHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Content.ExportAll()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="qazstep-backup.json"`)
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *ApiHandler) Import(w http.ResponseWriter, r *http.Request) {
	var payload content.ImportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.Content.ImportAll(payload); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Данные успешно импортированы",
	})
}

// issueToken подписывает токен сессии на 3 дня.
func (h *ApiHandler) issueToken(userID int64) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtKey)
}

// --- Вспомогательные функции ---

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// respondWithJSON - вспомогательная функция для отправки JSON-ответов.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
