package main

import (
	"log"
	"net/http"
	"strings"

	"qazstep/internal/api"
	"qazstep/internal/config"
	"qazstep/internal/content"
	"qazstep/internal/cron"
	"qazstep/internal/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Файла .env нет, берем системное окружение")
	}

	cfg := config.Load()

	// --- ХРАНИЛИЩЕ ---
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}
	if err := store.Seed(); err != nil {
		log.Fatalf("Ошибка создания стартовых данных: %v", err)
	}
	log.Printf("📁 Данные: %s", store.Dir())

	svc := content.NewService(store)

	// --- РОУТЕР ---
	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware)
	r.Use(api.CORSMiddleware)

	apiHandler := api.NewApiHandler(svc, []byte(cfg.JWTSecret))
	apiHandler.SetupRoutes(r)

	// --- ФОНОВЫЕ ЗАДАЧИ ---
	if _, err := cron.StartJobs(svc, cfg.BackupDir, cfg.BackupSchedule); err != nil {
		log.Fatalf("Ошибка запуска фоновых задач: %v", err)
	}

	// --- СТАТИКА ---
	// FileServer обслуживает все, что не начинается с /api.
	fs := http.FileServer(http.Dir(cfg.StaticDir))
	r.MatcherFunc(func(req *http.Request, rm *mux.RouteMatch) bool {
		return !strings.HasPrefix(req.URL.Path, "/api")
	}).Handler(fs)

	// --- ЗАПУСК СЕРВЕРА ---
	addr := ":" + cfg.Port
	log.Println("🚀 Сервер запущен!")
	log.Printf("📁 API: http://localhost%s/api", addr)
	log.Printf("📁 Сайт: http://localhost%s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
