package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"qazstep/internal/models"
)

const sessionFileName = "session.json"

// Session - явный объект сессии клиента с жизненным циклом
// открыть/сохранить/сбросить. Живет в файле рядом с зеркалом, а не в
// глобальном состоянии.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Active сообщает, есть ли залогиненный пользователь.
func (s *Session) Active() bool {
	return s != nil && s.User.ID != 0
}

func sessionPath(dir string) string {
	return filepath.Join(dir, sessionFileName)
}

// OpenSession читает сохраненную сессию. Нет файла или файл битый -
// возвращается пустая (анонимная) сессия.
func OpenSession(dir string) *Session {
	data, err := os.ReadFile(sessionPath(dir))
	if err != nil {
		return &Session{}
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return &Session{}
	}
	return &s
}

// Save записывает сессию на диск.
func (s *Session) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(sessionPath(dir), data, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear сбрасывает сессию и убирает файл.
func (s *Session) Clear(dir string) error {
	s.User = models.User{}
	s.Token = ""
	if err := os.Remove(sessionPath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
