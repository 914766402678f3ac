package config

import "os"

type Config struct {
	Port           string
	DataDir        string
	StaticDir      string
	JWTSecret      string
	BackupDir      string
	BackupSchedule string // выражение для cron, например "@daily"
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		DataDir:        getEnv("DATA_DIR", "data"),
		StaticDir:      getEnv("STATIC_DIR", "./web/static"),
		JWTSecret:      getEnv("JWT_SECRET", "my_very_secret_and_long_key_32_bytes"),
		BackupDir:      getEnv("BACKUP_DIR", "backups"),
		BackupSchedule: getEnv("BACKUP_SCHEDULE", "@daily"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
