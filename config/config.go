// Package config reads the runtime configuration of the YaMDb API from the
// environment. A .env file in the working directory is loaded first when present.
package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

var loadEnvOnce sync.Once

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// MailBackend selects how confirmation mails leave the process.
type MailBackend string

const (
	MailSMTP MailBackend = "smtp"
	MailFile MailBackend = "file"
	MailLog  MailBackend = "log"
)

// LoadEnv loads variables from .env without overriding already set ones.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

func getenv(key string) string {
	LoadEnv()
	return strings.TrimSpace(os.Getenv(key))
}

func getInt(key string, def int) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := getenv("YAMDB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return getenv("YAMDB_DEBUG") == "true"
}

func GetLogFolder() string {
	logFolderPath := getenv("YAMDB_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetListen() string {
	return getenv("YAMDB_LISTEN")
}

func GetPort() int {
	return getInt("YAMDB_PORT", 8000)
}

// GetCertFile and GetKeyFile name the TLS key pair. Both empty serves plain HTTP.
func GetCertFile() string {
	return getenv("YAMDB_CERT_FILE")
}

func GetKeyFile() string {
	return getenv("YAMDB_KEY_FILE")
}

// GetSecret returns the key used to sign access tokens and confirmation codes.
// An empty value makes the server generate a per-process secret.
func GetSecret() string {
	return getenv("YAMDB_SECRET")
}

func GetTokenTTL() time.Duration {
	return getDuration("YAMDB_TOKEN_TTL", 24*time.Hour)
}

func GetCodeTTL() time.Duration {
	return getDuration("YAMDB_CODE_TTL", 72*time.Hour)
}

func GetPageSize() int {
	size := getInt("YAMDB_PAGE_SIZE", 10)
	if size <= 0 {
		return 10
	}
	return size
}

// GetRedisAddr returns the external redis address; empty means embedded.
func GetRedisAddr() string {
	return getenv("YAMDB_REDIS_ADDR")
}

// GetRateLimit returns requests per minute allowed per client on auth routes.
func GetRateLimit() int {
	return getInt("YAMDB_RATE_LIMIT", 30)
}

func GetAuditRetentionDays() int {
	return getInt("YAMDB_AUDIT_RETENTION_DAYS", 90)
}

func GetAdminUsername() string {
	return getenv("YAMDB_ADMIN_USERNAME")
}

func GetAdminEmail() string {
	return getenv("YAMDB_ADMIN_EMAIL")
}

// MailConfig describes the outgoing mail channel.
type MailConfig struct {
	Backend  MailBackend
	From     string
	Host     string
	Port     int
	Username string
	Password string
	Dir      string
}

func GetMailConfig() MailConfig {
	backend := MailBackend(getenv("YAMDB_MAIL_BACKEND"))
	if backend == "" {
		backend = MailFile
	}
	from := getenv("YAMDB_MAIL_FROM")
	if from == "" {
		from = "noreply@yamdb.local"
	}
	dir := getenv("YAMDB_MAIL_DIR")
	if dir == "" {
		dir = "sent_emails"
	}
	return MailConfig{
		Backend:  backend,
		From:     from,
		Host:     getenv("YAMDB_SMTP_HOST"),
		Port:     getInt("YAMDB_SMTP_PORT", 587),
		Username: getenv("YAMDB_SMTP_USER"),
		Password: getenv("YAMDB_SMTP_PASSWORD"),
		Dir:      dir,
	}
}
