package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
}

type AppConfig struct {
	HTTPPort              string
	AccountServiceURL     string
	AccountServiceTimeout time.Duration
}

func LoadConfigDB() (*DBConfig, error) {
	err := godotenv.Load(filepath.Join("config.env"))
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(os.Getenv("DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdle, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	return &DBConfig{
		Host:         os.Getenv("DB_HOST"),
		Port:         port,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxIdle,
	}, nil
}

func LoadConfigApp() (*AppConfig, error) {
	// config.env may already be loaded by LoadConfigDB; a missing file here
	// is fine when the environment is set externally
	_ = godotenv.Load(filepath.Join("config.env"))

	accountServiceURL := os.Getenv("ACCOUNT_SERVICE_URL")
	if accountServiceURL == "" {
		return nil, fmt.Errorf("ACCOUNT_SERVICE_URL is required")
	}

	timeoutSeconds := 5
	if value := os.Getenv("ACCOUNT_SERVICE_TIMEOUT_SECONDS"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCOUNT_SERVICE_TIMEOUT_SECONDS: %w", err)
		}
		timeoutSeconds = parsed
	}

	return &AppConfig{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		AccountServiceURL:     accountServiceURL,
		AccountServiceTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
