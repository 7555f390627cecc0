package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Warehouse backends.
const (
	WarehousePostgres = "postgres"
	WarehouseBigQuery = "bigquery"
	WarehouseMemory   = "memory"
)

// Object store backends.
const (
	ObjectStoreLocal  = "local"
	ObjectStoreMemory = "memory"
	ObjectStoreGCS    = "gcs"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	DatabaseURL   string
	EnableDBCheck bool

	WarehouseBackend   string
	ObjectStoreBackend string
	ObjectStoreRoot    string
	GCSBucket          string
	GCPProjectID       string
	BigQueryDataset    string
	BigQueryLocation   string
	CredentialsFile    string

	RateAPIBaseURL   string
	RateAPIAccessKey string
	RateAPITimeout   time.Duration

	ReferenceTimezone string
	StorageTimeout    time.Duration

	PipelineMaxRetries       int
	PipelineRetryDelay       time.Duration
	PipelineStageTimeout     time.Duration
	PipelineWorkers          int
	PipelineQueueSize        int
	PipelineScheduleInterval time.Duration
	PipelineDefaultPairs     []string

	NotifyRecipients     []string
	NotifyDefaultTargets []string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	SMTPFrom             string

	KafkaBrokers     []string
	KafkaEventsTopic string

	JWTSecret            string
	JWTExpiryDuration    time.Duration
	JWTIssuer            string
	OperatorUsername     string
	OperatorPasswordHash string
	LoginRateLimit       string
	TriggerRateLimit     string
	CORSAllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("WAREHOUSE_BACKEND", WarehouseMemory)
	viper.SetDefault("OBJECT_STORE_BACKEND", ObjectStoreLocal)
	viper.SetDefault("OBJECT_STORE_ROOT", "./data")
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("GCP_PROJECT_ID", "")
	viper.SetDefault("BIGQUERY_DATASET", "exchange_rates")
	viper.SetDefault("BIGQUERY_LOCATION", "US")
	viper.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	viper.SetDefault("RATE_API_BASE_URL", "http://api.exchangerate.host")
	viper.SetDefault("RATE_API_ACCESS_KEY", "")
	viper.SetDefault("RATE_API_TIMEOUT", "30s")
	viper.SetDefault("REFERENCE_TIMEZONE", "Africa/Cairo")
	viper.SetDefault("STORAGE_TIMEOUT", "60s")
	viper.SetDefault("PIPELINE_MAX_RETRIES", 1)
	viper.SetDefault("PIPELINE_RETRY_DELAY", "2m")
	viper.SetDefault("PIPELINE_STAGE_TIMEOUT", "5m")
	viper.SetDefault("PIPELINE_WORKERS", 2)
	viper.SetDefault("PIPELINE_QUEUE_SIZE", 16)
	viper.SetDefault("PIPELINE_SCHEDULE_INTERVAL", "0s")
	viper.SetDefault("PIPELINE_DEFAULT_PAIRS", "USD/EGP")
	viper.SetDefault("NOTIFY_RECIPIENTS", "")
	viper.SetDefault("NOTIFY_DEFAULT_TARGETS", "EGP,EUR,GBP")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_EVENTS_TOPIC", "fx-pipeline-runs")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "fx-rates-pipeline")
	viper.SetDefault("OPERATOR_USERNAME", "operator")
	viper.SetDefault("OPERATOR_PASSWORD_HASH", "")
	viper.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	viper.SetDefault("TRIGGER_RATE_LIMIT", "30-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:                 viper.GetString("PORT"),
		IsProduction:         viper.GetBool("IS_PRODUCTION"),
		DatabaseURL:          viper.GetString("PGSQL_URL"),
		EnableDBCheck:        viper.GetBool("ENABLE_DB_CHECK"),
		WarehouseBackend:     strings.ToLower(viper.GetString("WAREHOUSE_BACKEND")),
		ObjectStoreBackend:   strings.ToLower(viper.GetString("OBJECT_STORE_BACKEND")),
		ObjectStoreRoot:      viper.GetString("OBJECT_STORE_ROOT"),
		GCSBucket:            viper.GetString("GCS_BUCKET"),
		GCPProjectID:         viper.GetString("GCP_PROJECT_ID"),
		BigQueryDataset:      viper.GetString("BIGQUERY_DATASET"),
		BigQueryLocation:     viper.GetString("BIGQUERY_LOCATION"),
		CredentialsFile:      viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		RateAPIBaseURL:       viper.GetString("RATE_API_BASE_URL"),
		RateAPIAccessKey:     viper.GetString("RATE_API_ACCESS_KEY"),
		ReferenceTimezone:    viper.GetString("REFERENCE_TIMEZONE"),
		PipelineMaxRetries:   viper.GetInt("PIPELINE_MAX_RETRIES"),
		PipelineWorkers:      viper.GetInt("PIPELINE_WORKERS"),
		PipelineQueueSize:    viper.GetInt("PIPELINE_QUEUE_SIZE"),
		PipelineDefaultPairs: splitList(viper.GetString("PIPELINE_DEFAULT_PAIRS")),
		NotifyRecipients:     splitList(viper.GetString("NOTIFY_RECIPIENTS")),
		NotifyDefaultTargets: splitList(viper.GetString("NOTIFY_DEFAULT_TARGETS")),
		SMTPHost:             viper.GetString("SMTP_HOST"),
		SMTPPort:             viper.GetInt("SMTP_PORT"),
		SMTPUsername:         viper.GetString("SMTP_USERNAME"),
		SMTPPassword:         viper.GetString("SMTP_PASSWORD"),
		SMTPFrom:             viper.GetString("SMTP_FROM"),
		KafkaBrokers:         splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaEventsTopic:     viper.GetString("KAFKA_EVENTS_TOPIC"),
		JWTSecret:            viper.GetString("JWT_SECRET"),
		JWTIssuer:            viper.GetString("JWT_ISSUER"),
		OperatorUsername:     viper.GetString("OPERATOR_USERNAME"),
		OperatorPasswordHash: viper.GetString("OPERATOR_PASSWORD_HASH"),
		LoginRateLimit:       viper.GetString("LOGIN_RATE_LIMIT"),
		TriggerRateLimit:     viper.GetString("TRIGGER_RATE_LIMIT"),
		CORSAllowedOrigins:   splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.RateAPITimeout, err = duration("RATE_API_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StorageTimeout, err = duration("STORAGE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.PipelineRetryDelay, err = duration("PIPELINE_RETRY_DELAY", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PipelineStageTimeout, err = duration("PIPELINE_STAGE_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PipelineScheduleInterval, err = duration("PIPELINE_SCHEDULE_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.JWTExpiryDuration, err = duration("JWT_EXPIRY_DURATION", time.Hour); err != nil {
		return nil, err
	}

	switch cfg.WarehouseBackend {
	case WarehousePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when WAREHOUSE_BACKEND=%s", WarehousePostgres)
		}
	case WarehouseBigQuery:
		if cfg.GCPProjectID == "" || cfg.BigQueryDataset == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID and BIGQUERY_DATASET are required when WAREHOUSE_BACKEND=%s", WarehouseBigQuery)
		}
	case WarehouseMemory:
	default:
		return nil, fmt.Errorf("unknown WAREHOUSE_BACKEND %q", cfg.WarehouseBackend)
	}

	switch cfg.ObjectStoreBackend {
	case ObjectStoreGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when OBJECT_STORE_BACKEND=%s", ObjectStoreGCS)
		}
	case ObjectStoreLocal, ObjectStoreMemory:
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE_BACKEND %q", cfg.ObjectStoreBackend)
	}

	if cfg.RateAPIAccessKey == "" {
		log.Println("Warning: RATE_API_ACCESS_KEY not set. The rate provider will reject live requests.")
	}
	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET is the default insecure key. THIS IS NOT FOR PRODUCTION.")
	}
	if cfg.OperatorPasswordHash == "" {
		log.Println("Warning: OPERATOR_PASSWORD_HASH not set. Dashboard login is disabled.")
	}

	return cfg, nil
}

// duration reads key as a time.Duration, falling back to def when unset.
func duration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, raw)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
