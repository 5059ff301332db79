package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	LocalDBPath           string
	StoreName             string
	AuthSecret            string
	AccessTokenTTLMinutes int
	SyncIntervalSeconds   int
	SyncMaxRetries        int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "60"))
	if err != nil || syncInterval < 1 {
		syncInterval = 60
	}
	syncRetries, err := strconv.Atoi(getEnv("SYNC_MAX_RETRIES", "5"))
	if err != nil || syncRetries < 1 {
		syncRetries = 5
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		LocalDBPath:           getEnv("LOCAL_DB_PATH", "data/efuel.db"),
		StoreName:             getEnv("STORE_NAME", "E-Fuel POS"),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		SyncIntervalSeconds:   syncInterval,
		SyncMaxRetries:        syncRetries,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
