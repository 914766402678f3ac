package cron

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"qazstep/internal/content"

	"github.com/robfig/cron/v3"
)

// StartJobs запускает фоновые задачи: по расписанию schedule снимок
// всех коллекций пишется в backupDir. Возвращает планировщик, чтобы
// вызывающий код мог его остановить.
func StartJobs(svc *content.Service, backupDir, schedule string) (*cron.Cron, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		log.Println("Запуск резервного копирования...")

		snap, err := svc.ExportAll()
		if err != nil {
			log.Println("❌ Не удалось собрать снимок:", err)
			return
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			log.Println("❌ Не удалось сериализовать снимок:", err)
			return
		}

		name := fmt.Sprintf("qazstep-backup-%s.json", time.Now().Format("2006-01-02"))
		path := filepath.Join(backupDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Println("❌ Не удалось записать бэкап:", err)
			return
		}

		log.Printf("✅ Бэкап сохранен: %s (%d уроков, %d теорий, %d пользователей)",
			path, len(snap.Lessons), len(snap.Theories), len(snap.Users))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule backup job: %w", err)
	}

	c.Start()
	return c, nil
}
