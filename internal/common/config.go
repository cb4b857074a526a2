package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Workflow WorkflowConfig
	Notify   NotifyConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr   string
	InboxDir   string // watched for dropped PDFs; empty disables the watcher
	IntakeUser string // username the watcher uploads as
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Enabled     bool
	Pdftoppm    string
	Tesseract   string
	TessdataDir string
	Zoom        float64
	PageWorkers int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Enabled           bool
	Model             string
	APIKey            string
	BaseURL           string
	MaxTokens         int
	Timeout           time.Duration
	ProcessingTimeout time.Duration
}

// StorageConfig holds file artifact storage configuration
type StorageConfig struct {
	Backend        string // "local" | "s3"
	UploadDir      string
	ArtifactDir    string
	MaxUploadBytes int64
	S3             S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// WorkflowConfig holds lifecycle settings
type WorkflowConfig struct {
	OrgTaxIdentity string
	AbandonAfter   time.Duration
	SweepInterval  time.Duration
}

// NotifyConfig holds notification fan-out settings
type NotifyConfig struct {
	NATSURL       string
	SubjectPrefix string
}

type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real env vars win.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv_load_failed", "error", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:   getEnv("GRPC_ADDR", ":8080"),
			InboxDir:   getEnv("INBOX_DIR", ""),
			IntakeUser: getEnv("INTAKE_USER", ""),
		},
		OCR: OCRConfig{
			Enabled:     getEnvAsBool("OCR_ENABLED", true),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Zoom:        getEnvAsFloat64("OCR_ZOOM", 3.0),
			PageWorkers: getEnvAsInt("OCR_PAGE_WORKERS", 4),
		},
		LLM: LLMConfig{
			Enabled:           getEnvAsBool("LLM_ENABLED", true),
			Model:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:         getEnvAsInt("OPENAI_MAX_TOKENS", 1200),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
			ProcessingTimeout: getEnvAsDuration("PROCESSING_TIMEOUT", 5*time.Minute),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			ArtifactDir:    getEnv("ARTIFACT_DIR", "./tmp"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 16<<20),
			S3: S3Config{
				Bucket:    getEnv("S3_BUCKET", ""),
				Region:    getEnv("S3_REGION", "us-east-1"),
				Endpoint:  getEnv("S3_ENDPOINT", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				UseSSL:    getEnvAsBool("S3_USE_SSL", true),
			},
		},
		Workflow: WorkflowConfig{
			OrgTaxIdentity: strings.ToUpper(getEnv("ORG_TAX_IDENTITY", "AAECS5013J")),
			AbandonAfter:   getEnvAsDuration("ABANDON_AFTER", 24*time.Hour),
			SweepInterval:  getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		},
		Notify: NotifyConfig{
			NATSURL:       getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "notifications.invoices"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DB_URL", c.Database.DSN, Required)
	v.Field("DB_DRIVER", c.Database.Driver, OneOf("postgres", "sqlite"))
	v.Field("STORAGE_BACKEND", c.Storage.Backend, OneOf("local", "s3"))
	v.Field("ORG_TAX_IDENTITY", c.Workflow.OrgTaxIdentity, ExactLength(10))
	if c.LLM.Enabled {
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	if c.Storage.Backend == "s3" {
		v.Field("S3_BUCKET", c.Storage.S3.Bucket, Required)
	}
	if c.Server.GRPCAddr == "" {
		v.Field("GRPC_ADDR", c.Server.GRPCAddr, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
