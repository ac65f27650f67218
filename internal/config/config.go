package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	SessionStoreFile     = "file"
	SessionStoreSQLite   = "sqlite"
	SessionStorePostgres = "postgres"

	TokenSchemePlaceholder = "placeholder"
	TokenSchemeJWT         = "jwt"
	TokenSchemeCognito     = "cognito"

	PasswordSchemePlain  = "plain"
	PasswordSchemeBcrypt = "bcrypt"
)

type Config struct {
	AppEnv           string
	LogLevel         string
	APIBaseURL       string
	Locale           string
	PasswordScheme   string
	NetwatchInterval time.Duration
	Session          SessionConfig
	Token            TokenConfig
	DB               DBConfig
	Cognito          CognitoConfig
	Server           ServerConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the settings the client needs.
func (c Config) Validate() error {
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: must be an absolute http(s) URL", c.APIBaseURL)
	}
	if c.NetwatchInterval <= 0 {
		return fmt.Errorf("invalid NETWATCH_INTERVAL %s: must be positive", c.NetwatchInterval)
	}

	switch c.Session.Store {
	case SessionStoreFile:
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_PATH is required when SESSION_STORE=file")
		}
	case SessionStoreSQLite:
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("SESSION_SQLITE_PATH is required when SESSION_STORE=sqlite")
		}
	case SessionStorePostgres:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: must be one of file, sqlite, postgres", c.Session.Store)
	}

	switch c.Token.Scheme {
	case TokenSchemePlaceholder:
		if c.AppEnv == "prod" {
			return fmt.Errorf("TOKEN_SCHEME=placeholder must not be used in prod environment")
		}
	case TokenSchemeJWT:
		if len(c.Token.Secret) < 32 {
			return fmt.Errorf("TOKEN_SECRET must be at least 32 bytes when TOKEN_SCHEME=jwt")
		}
		if c.Token.TTL <= 0 {
			return fmt.Errorf("invalid TOKEN_TTL %s: must be positive", c.Token.TTL)
		}
	case TokenSchemeCognito:
		if c.Cognito.UserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required when TOKEN_SCHEME=cognito")
		}
		if c.Cognito.AppClientID == "" {
			return fmt.Errorf("COGNITO_APP_CLIENT_ID is required when TOKEN_SCHEME=cognito")
		}
	default:
		return fmt.Errorf("invalid TOKEN_SCHEME %q: must be one of placeholder, jwt, cognito", c.Token.Scheme)
	}

	switch c.PasswordScheme {
	case PasswordSchemePlain, PasswordSchemeBcrypt:
	default:
		return fmt.Errorf("invalid PASSWORD_SCHEME %q: must be one of plain, bcrypt", c.PasswordScheme)
	}
	return nil
}

// ValidateServer checks the settings the document store needs.
func (c Config) ValidateServer() error {
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.Server.Port, err)
	}
	return nil
}

type SessionConfig struct {
	Store      string
	Path       string
	SQLitePath string
}

type TokenConfig struct {
	Scheme string
	Secret string
	TTL    time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region          string
	UserPoolID      string
	AppClientID     string
	AppClientSecret string
}

type ServerConfig struct {
	Port     string
	DataFile string
}

// LoadEnvFile loads KEY=VALUE pairs from filename into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(filename string) error {
	if err := godotenv.Load(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return nil
}

func Load() Config {
	dataDir := defaultDataDir()
	return Config{
		AppEnv:           envOrDefault("APP_ENV", "local"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		APIBaseURL:       strings.TrimRight(envOrDefault("API_BASE_URL", "http://localhost:8000"), "/"),
		Locale:           envOrDefault("LOCALE", "en"),
		PasswordScheme:   strings.ToLower(envOrDefault("PASSWORD_SCHEME", PasswordSchemePlain)),
		NetwatchInterval: durationOrDefault("NETWATCH_INTERVAL", 5*time.Second),
		Session: SessionConfig{
			Store:      strings.ToLower(envOrDefault("SESSION_STORE", SessionStoreFile)),
			Path:       envOrDefault("SESSION_PATH", filepath.Join(dataDir, "session.json")),
			SQLitePath: envOrDefault("SESSION_SQLITE_PATH", filepath.Join(dataDir, "session.db")),
		},
		Token: TokenConfig{
			Scheme: strings.ToLower(envOrDefault("TOKEN_SCHEME", TokenSchemePlaceholder)),
			Secret: os.Getenv("TOKEN_SECRET"),
			TTL:    durationOrDefault("TOKEN_TTL", 7*24*time.Hour),
		},
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "taskapp"),
			Password: envOrDefault("DB_PASSWORD", "taskapp"),
			Name:     envOrDefault("DB_NAME", "taskapp"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		Cognito: CognitoConfig{
			Region:          envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:     os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret: os.Getenv("COGNITO_APP_CLIENT_SECRET"),
		},
		Server: ServerConfig{
			Port:     envOrDefault("SERVER_PORT", "8000"),
			DataFile: os.Getenv("DOCSTORE_FILE"),
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskapp"
	}
	return filepath.Join(home, ".taskapp")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// durationOrDefault falls back to defaultVal when the variable is unset.
// Unparseable values yield 0 so Validate reports them.
func durationOrDefault(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
