package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	HistoryPath string
	OutputDir   string

	DashboardBaseURL      string
	DashboardEmail        string
	DashboardPassword     string
	DashboardTimeoutMs    int
	DashboardRateLimitRPS int

	RedashURL       string
	RedashAPIKey    string
	RedashTimeoutMs int

	SheetID            string
	SheetResultTab     string
	SheetGroupsTab     string
	ServiceAccountFile string

	TargetStatus  string
	ExcludedSites []string

	RunMaxAttempts      int
	RunRetryBackoffSec  int
	WatchIntervalSec    int
	WatchAutoExportXLSX bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "authwatch.db")),
		HistoryPath: getEnv("HISTORY_PATH", filepath.Join(cwd, "data", "auth_failed_history.csv")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		DashboardBaseURL:      getEnv("DASHBOARD_BASE_URL", "https://dashboard.tuuthfairy.com"),
		DashboardEmail:        getEnv("DASHBOARD_EMAIL", ""),
		DashboardPassword:     getEnv("DASHBOARD_PASSWORD", ""),
		DashboardTimeoutMs:    getEnvInt("DASHBOARD_TIMEOUT_MS", 30000),
		DashboardRateLimitRPS: getEnvInt("DASHBOARD_RATE_LIMIT_RPS", 2),

		RedashURL:       getEnv("REDASH_URL", ""),
		RedashAPIKey:    getEnv("REDASH_API_KEY", ""),
		RedashTimeoutMs: getEnvInt("REDASH_TIMEOUT_MS", 30000),

		SheetID:            getEnv("SHEET_ID", ""),
		SheetResultTab:     getEnv("SHEET_RESULT_TAB", "auth_failed"),
		SheetGroupsTab:     getEnv("SHEET_GROUPS_TAB", "Groups"),
		ServiceAccountFile: getEnv("SERVICE_ACCOUNT_FILE", filepath.Join(cwd, "service-account.json")),

		TargetStatus:  getEnv("TARGET_STATUS", "auth_failed"),
		ExcludedSites: getEnvList("EXCLUDED_SITES", []string{"unumdentalpwp.skygenusasystems.com"}),

		RunMaxAttempts:      getEnvInt("RUN_MAX_ATTEMPTS", 3),
		RunRetryBackoffSec:  getEnvInt("RUN_RETRY_BACKOFF_SEC", 60),
		WatchIntervalSec:    getEnvInt("WATCH_INTERVAL_SEC", 3600),
		WatchAutoExportXLSX: getEnvBool("WATCH_AUTO_EXPORT_XLSX", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
