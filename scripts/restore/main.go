// Команда restore загружает снимок данных (файл, полученный из
// GET /api/export) обратно на сервер через POST /api/import.
//
// Использование: go run ./scripts/restore qazstep-backup.json
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("Запуск восстановления данных...")

	if len(os.Args) < 2 {
		log.Fatal("Укажите файл снимка: restore <backup.json>")
	}
	path := os.Args[1]

	if err := godotenv.Load(); err != nil {
		log.Println("Файла .env нет, берем системное окружение")
	}
	apiURL := os.Getenv("QAZSTEP_API")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Не удалось прочитать %s: %v", path, err)
	}
	// Проверяем, что это вообще JSON, прежде чем слать на сервер.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		log.Fatalf("Файл %s не похож на снимок: %v", path, err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Post(apiURL+"/import", "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatalf("Сервер недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		log.Fatalf("Импорт не прошел (статус %d): %s", resp.StatusCode, apiErr.Error)
	}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Не удалось разобрать ответ сервера: %v", err)
	}

	fmt.Printf("✅ %s\n", result.Message)
}
