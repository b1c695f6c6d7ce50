package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Log    LogConfig
	CORS   CORSConfig
	NIF    NIFConfig
	OCR    OCRConfig
	QR     QRConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds database connection settings. Driver is "pgx" for
// PostgreSQL or "sqlite" for an embedded file database.
type DBConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MaxOpen    int    `mapstructure:"max_open"`
	MaxIdle    int    `mapstructure:"max_idle"`
}

// DSN returns the connection string for the configured driver.
func (d *DBConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the golang-migrate database URL.
func (d *DBConfig) MigrateURL() string {
	if d.Driver == "sqlite" {
		return "sqlite://" + d.SQLitePath
	}
	return d.DSN()
}

// AuthConfig holds verification settings for tokens issued by the
// external auth service. An empty secret disables authentication.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NIFConfig holds tax-ID lookup settings.
type NIFConfig struct {
	Providers     []string      `mapstructure:"providers"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	ScrapeSources []string      `mapstructure:"scrape_sources"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Engine            string        `mapstructure:"engine"`
	TesseractPath     string        `mapstructure:"tesseract_path"`
	PdftoppmPath      string        `mapstructure:"pdftoppm_path"`
	Languages         string        `mapstructure:"languages"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxFileSizeMB     int64         `mapstructure:"max_file_size_mb"`
	VisionCredentials string        `mapstructure:"vision_credentials"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (o *OCRConfig) MaxFileSizeBytes() int64 {
	return o.MaxFileSizeMB * 1024 * 1024
}

// QRConfig holds QR decoding and mapping settings.
type QRConfig struct {
	AmountPolicy string        `mapstructure:"amount_policy"`
	ZbarPath     string        `mapstructure:"zbar_path"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from environment variables with the DESPESIFY_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DESPESIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.driver", "pgx")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "despesify")
	v.SetDefault("db.password", "despesify_secret")
	v.SetDefault("db.name", "despesify")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.sqlite_path", "despesify.db")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// NIF lookup defaults
	v.SetDefault("nif.providers", "nifpt,registry")
	v.SetDefault("nif.api_key", "")
	v.SetDefault("nif.base_url", "https://www.nif.pt/")
	v.SetDefault("nif.timeout", "15s")
	v.SetDefault("nif.user_agent", "Despesify/1.0")
	v.SetDefault("nif.scrape_sources", "nif.pt|https://www.nif.pt/{nif}/|title")

	// OCR defaults
	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.languages", "por+eng")
	v.SetDefault("ocr.timeout", "30s")
	v.SetDefault("ocr.max_file_size_mb", 10)
	v.SetDefault("ocr.vision_credentials", "")

	// QR defaults
	v.SetDefault("qr.amount_policy", "gross")
	v.SetDefault("qr.zbar_path", "zbarimg")
	v.SetDefault("qr.timeout", "10s")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "DESPESIFY_SERVER_PORT",
		"server.read_timeout":    "DESPESIFY_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "DESPESIFY_SERVER_WRITE_TIMEOUT",
		"server.environment":     "DESPESIFY_SERVER_ENVIRONMENT",
		"db.driver":              "DESPESIFY_DB_DRIVER",
		"db.host":                "DESPESIFY_DB_HOST",
		"db.port":                "DESPESIFY_DB_PORT",
		"db.user":                "DESPESIFY_DB_USER",
		"db.password":            "DESPESIFY_DB_PASSWORD",
		"db.name":                "DESPESIFY_DB_NAME",
		"db.sslmode":             "DESPESIFY_DB_SSLMODE",
		"db.sqlite_path":         "DESPESIFY_DB_SQLITE_PATH",
		"db.max_open":            "DESPESIFY_DB_MAX_OPEN",
		"db.max_idle":            "DESPESIFY_DB_MAX_IDLE",
		"auth.jwt_secret":        "DESPESIFY_AUTH_JWT_SECRET",
		"auth.issuer":            "DESPESIFY_AUTH_ISSUER",
		"log.level":              "DESPESIFY_LOG_LEVEL",
		"log.format":             "DESPESIFY_LOG_FORMAT",
		"cors.allowed_origins":   "DESPESIFY_CORS_ALLOWED_ORIGINS",
		"nif.providers":          "DESPESIFY_NIF_PROVIDERS",
		"nif.api_key":            "DESPESIFY_NIF_API_KEY",
		"nif.base_url":           "DESPESIFY_NIF_BASE_URL",
		"nif.timeout":            "DESPESIFY_NIF_TIMEOUT",
		"nif.user_agent":         "DESPESIFY_NIF_USER_AGENT",
		"nif.scrape_sources":     "DESPESIFY_NIF_SCRAPE_SOURCES",
		"ocr.engine":             "DESPESIFY_OCR_ENGINE",
		"ocr.tesseract_path":     "DESPESIFY_OCR_TESSERACT_PATH",
		"ocr.pdftoppm_path":      "DESPESIFY_OCR_PDFTOPPM_PATH",
		"ocr.languages":          "DESPESIFY_OCR_LANGUAGES",
		"ocr.timeout":            "DESPESIFY_OCR_TIMEOUT",
		"ocr.max_file_size_mb":   "DESPESIFY_OCR_MAX_FILE_SIZE_MB",
		"ocr.vision_credentials": "DESPESIFY_OCR_VISION_CREDENTIALS",
		"qr.amount_policy":       "DESPESIFY_QR_AMOUNT_POLICY",
		"qr.zbar_path":           "DESPESIFY_QR_ZBAR_PATH",
		"qr.timeout":             "DESPESIFY_QR_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if DESPESIFY_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DESPESIFY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Driver:     v.GetString("db.driver"),
		Host:       v.GetString("db.host"),
		Port:       v.GetInt("db.port"),
		User:       v.GetString("db.user"),
		Password:   v.GetString("db.password"),
		Name:       v.GetString("db.name"),
		SSLMode:    v.GetString("db.sslmode"),
		SQLitePath: v.GetString("db.sqlite_path"),
		MaxOpen:    v.GetInt("db.max_open"),
		MaxIdle:    v.GetInt("db.max_idle"),
	}
	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.NIF = NIFConfig{
		Providers:     splitList(v.GetString("nif.providers")),
		APIKey:        v.GetString("nif.api_key"),
		BaseURL:       v.GetString("nif.base_url"),
		Timeout:       v.GetDuration("nif.timeout"),
		UserAgent:     v.GetString("nif.user_agent"),
		ScrapeSources: splitList(v.GetString("nif.scrape_sources")),
	}
	cfg.OCR = OCRConfig{
		Engine:            v.GetString("ocr.engine"),
		TesseractPath:     v.GetString("ocr.tesseract_path"),
		PdftoppmPath:      v.GetString("ocr.pdftoppm_path"),
		Languages:         v.GetString("ocr.languages"),
		Timeout:           v.GetDuration("ocr.timeout"),
		MaxFileSizeMB:     v.GetInt64("ocr.max_file_size_mb"),
		VisionCredentials: v.GetString("ocr.vision_credentials"),
	}
	cfg.QR = QRConfig{
		AmountPolicy: strings.ToLower(v.GetString("qr.amount_policy")),
		ZbarPath:     v.GetString("qr.zbar_path"),
		Timeout:      v.GetDuration("qr.timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q (want pgx or sqlite)", c.DB.Driver)
	}
	switch c.QR.AmountPolicy {
	case "gross", "net":
	default:
		return fmt.Errorf("config: unsupported qr.amount_policy %q (want gross or net)", c.QR.AmountPolicy)
	}
	switch c.OCR.Engine {
	case "tesseract", "vision":
	default:
		return fmt.Errorf("config: unsupported ocr.engine %q (want tesseract or vision)", c.OCR.Engine)
	}
	return nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
