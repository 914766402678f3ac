package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Имена коллекций. Каждая коллекция - один JSON-файл с массивом записей.
const (
	Users    = "users"
	Lessons  = "lessons"
	Theories = "theories"
	Levels   = "levels"
)

// ErrCorrupt - файл коллекции есть, но JSON в нем не разбирается.
// Отсутствующий файл ошибкой НЕ считается (это просто "нет данных"),
// а вот поврежденный - отдельный случай, который вызывающий код
// должен хотя бы залогировать, прежде чем работать с пустой коллекцией.
var ErrCorrupt = errors.New("collection file is corrupt")

// Store читает и пишет целые JSON-коллекции на диске.
// Сам по себе он не сериализует циклы read-modify-write: для этого
// вызывающий код берет Locker(коллекция) на весь цикл - один писатель
// на файл, чтобы не терять обновления на гонках.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New создает Store поверх каталога dir (каталог создается при необходимости).
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Dir возвращает каталог с данными.
func (s *Store) Dir() string { return s.dir }

// Locker возвращает мьютекс коллекции. Держите его на весь цикл
// "прочитал - поменял - записал".
func (s *Store) Locker(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Exists сообщает, есть ли файл коллекции на диске.
func (s *Store) Exists(collection string) bool {
	_, err := os.Stat(s.path(collection))
	return err == nil
}

// Read загружает коллекцию в out (указатель на срез).
// Нет файла или файл пустой - out не трогаем, ошибки нет.
// Файл есть, но не разбирается - возвращаем ErrCorrupt, данные
// остаются пустыми.
func (s *Store) Read(collection string, out any) error {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", collection, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", collection, ErrCorrupt)
	}
	return nil
}

// Write сериализует коллекцию целиком и подменяет файл атомарно
// (временный файл + rename). Защиты от падения посреди записи нет.
func (s *Store) Write(collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	tmp, err := os.CreateTemp(s.dir, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), s.path(collection)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}
