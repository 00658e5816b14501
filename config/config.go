package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Event and object storage backends. An empty backend disables the feature.
const (
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
)

type Config struct {
	ServerPort  int            `yaml:"server_port"`
	StoreDriver string         `yaml:"store_driver"`
	Database    DatabaseConfig `yaml:"database"`
	Mongo       MongoConfig    `yaml:"mongo"`
	Auth        AuthConfig     `yaml:"auth"`
	Log         LogConfig      `yaml:"log"`
	CORS        CORSConfig     `yaml:"cors"`
	Events      EventsConfig   `yaml:"events"`
	Client      ClientConfig   `yaml:"client"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type EventsConfig struct {
	Backend  string         `yaml:"backend"`
	Channel  string         `yaml:"channel"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
	PrefetchCount   int    `yaml:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id"`
	CredentialsFile    string `yaml:"credentials_file"`
	SubscriptionSuffix string `yaml:"subscription_suffix"`
}

// ClientConfig controls hosting of the single-page client from a bucket.
type ClientConfig struct {
	Backend string      `yaml:"backend"`
	Prefix  string      `yaml:"prefix"`
	Minio   MinioConfig `yaml:"minio"`
	GCS     GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Default returns the configuration used when neither a config file nor
// environment variables set a value.
func Default() Config {
	return Config{
		ServerPort:  8080,
		StoreDriver: StoreMongo,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "tasktrack",
			Password: "password",
			DBName:   "tasktrack_db",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "tasktrack",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			Channel: "task-events",
		},
		Client: ClientConfig{
			Prefix: "client/",
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE and finally the environment.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration errors that would prevent the server from
// starting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.Events.Backend {
	case "", BackendRabbitMQ, BackendPubSub:
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}
	switch c.Client.Backend {
	case "", BackendMinio, BackendGCS:
	default:
		return fmt.Errorf("unknown client backend %q", c.Client.Backend)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = getEnvInt("SERVER_PORT", cfg.ServerPort)
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", cfg.StoreDriver))

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.UseSSL = getEnvBool("DB_USE_SSL", cfg.Database.UseSSL)

	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Mongo.Database)

	cfg.Auth.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.BcryptCost = getEnvInt("BCRYPT_COST", cfg.Auth.BcryptCost)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if raw, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(raw)
	}

	cfg.Events.Backend = strings.ToLower(getEnv("EVENTS_BACKEND", cfg.Events.Backend))
	cfg.Events.Channel = getEnv("EVENTS_CHANNEL", cfg.Events.Channel)
	cfg.Events.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.Events.RabbitMQ.URL)
	cfg.Events.RabbitMQ.QueueDurable = getEnvBool("RABBITMQ_QUEUE_DURABLE", cfg.Events.RabbitMQ.QueueDurable)
	cfg.Events.RabbitMQ.QueueAutoDelete = getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", cfg.Events.RabbitMQ.QueueAutoDelete)
	cfg.Events.RabbitMQ.PrefetchCount = getEnvInt("RABBITMQ_PREFETCH_COUNT", cfg.Events.RabbitMQ.PrefetchCount)
	cfg.Events.PubSub.ProjectID = getEnv("PUBSUB_PROJECT_ID", cfg.Events.PubSub.ProjectID)
	cfg.Events.PubSub.CredentialsFile = getEnv("PUBSUB_CREDENTIALS_FILE", cfg.Events.PubSub.CredentialsFile)
	cfg.Events.PubSub.SubscriptionSuffix = getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", cfg.Events.PubSub.SubscriptionSuffix)

	cfg.Client.Backend = strings.ToLower(getEnv("CLIENT_BACKEND", cfg.Client.Backend))
	cfg.Client.Prefix = getEnv("CLIENT_PREFIX", cfg.Client.Prefix)
	cfg.Client.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Client.Minio.Endpoint)
	cfg.Client.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Client.Minio.AccessKey)
	cfg.Client.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Client.Minio.SecretKey)
	cfg.Client.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Client.Minio.Bucket)
	cfg.Client.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Client.Minio.UseSSL)
	cfg.Client.GCS.Bucket = getEnv("GCS_BUCKET", cfg.Client.GCS.Bucket)
	cfg.Client.GCS.ProjectID = getEnv("GCS_PROJECT_ID", cfg.Client.GCS.ProjectID)
	cfg.Client.GCS.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", cfg.Client.GCS.CredentialsFile)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
