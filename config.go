package intelliquery

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"intelliquery/internal/api/models"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Mode     string
	ApiPort  string
	LogLevel string

	MainDatabase models.DBConnectionConfig

	Schema struct {
		ProfilePath        string
		CorrectionStrategy string
		ReadOnlyGuard      bool
	}
	LLM struct {
		Provider          string
		Model             string
		OpenAIKey         string
		OpenAIBaseURL     string
		OllamaHost        string
		HuggingFaceAPIKey string
	}
	Embedding struct {
		Provider string
		Model    string
		GenAIKey string
		TaskType string
	}
	Upstream struct {
		Timeout    time.Duration
		MaxRetries int
		RetryDelay time.Duration
	}
	RedisConfig struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	Audit struct {
		Key        string
		MaxEntries int
	}
}

var config AppConfig

// InitConfig loads the env file, then opens the database and the optional Redis audit store.
func InitConfig(envfile string) {
	LoadConfig(envfile)

	DB = connectToDatabase(config.MainDatabase)
	if config.RedisConfig.Host != "" {
		Redis = connectToRedis(config.RedisConfig.Host, config.RedisConfig.Port, config.RedisConfig.Password, config.RedisConfig.DB)
	}
}

// LoadConfig reads configuration and sets up the logger; nothing is dialed.
func LoadConfig(envfile string) AppConfig {
	if err := godotenv.Load(envfile); err != nil {
		log.Printf("Warning: could not load %s file: %s", envfile, err)
	}

	dbType, err := models.ParseDBType(os.Getenv("DB_TYPE"))
	if err != nil {
		log.Fatal(err)
	}

	config = AppConfig{
		Mode:     GetEnv("RUN_MODE", "prod"),
		ApiPort:  GetEnv("API_PORT", ":8000"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		MainDatabase: models.DBConnectionConfig{
			Type:     dbType,
			Host:     GetEnv("DB_HOSTNAME", "localhost"),
			Port:     getIntEnvOrDefault("DB_PORT", defaultPort(dbType)),
			Username: os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: os.Getenv("DB_NAME"),
			SSLMode:  GetEnv("DB_SSL_MODE", "disable"),
			DSN:      os.Getenv("DB_DSN"),
		},
	}
	if config.MainDatabase.DSN == "" && dbType != models.DBTypeSQLite {
		config.MainDatabase.Database = getEnvOrPanic("DB_NAME")
	}

	config.Schema.ProfilePath = os.Getenv("SCHEMA_PROFILE_PATH")
	config.Schema.CorrectionStrategy = GetEnv("CORRECTION_STRATEGY", string(models.CorrectionToken))
	config.Schema.ReadOnlyGuard = getBoolEnvOrDefault("SQL_READ_ONLY_GUARD", true)

	config.LLM.Provider = GetEnv("LLM_PROVIDER", "openai")
	config.LLM.Model = os.Getenv("LLM_MODEL")
	config.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	config.LLM.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	config.LLM.OllamaHost = GetEnv("OLLAMA_HOST", "http://localhost:11434")
	config.LLM.HuggingFaceAPIKey = os.Getenv("HUGGINGFACE_API_KEY")

	config.Embedding.Provider = GetEnv("EMBEDDING_PROVIDER", "openai")
	config.Embedding.Model = os.Getenv("EMBEDDING_MODEL")
	config.Embedding.GenAIKey = os.Getenv("GENAI_API_KEY")
	config.Embedding.TaskType = GetEnv("EMBEDDING_TASK_TYPE", "SEMANTIC_SIMILARITY")

	config.Upstream.Timeout = time.Duration(getIntEnvOrDefault("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second
	config.Upstream.MaxRetries = getIntEnvOrDefault("UPSTREAM_MAX_RETRIES", 2)
	config.Upstream.RetryDelay = time.Duration(getIntEnvOrDefault("UPSTREAM_RETRY_DELAY_MS", 500)) * time.Millisecond

	config.RedisConfig.Host = os.Getenv("REDIS_HOST")
	config.RedisConfig.Port = GetEnv("REDIS_PORT", "6379")
	config.RedisConfig.Password = GetEnv("REDIS_PASSWORD", "")
	config.RedisConfig.DB = getIntEnvOrDefault("REDIS_DB", 0)

	config.Audit.Key = GetEnv("AUDIT_KEY", "intelliquery:audit")
	config.Audit.MaxEntries = getIntEnvOrDefault("AUDIT_MAX_ENTRIES", 1000)

	Logger = initLogger(config.LogLevel)
	return config
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func defaultPort(dbType models.DBType) int {
	switch dbType {
	case models.DBTypePostgres:
		return 5432
	case models.DBTypeMySQL:
		return 3306
	default:
		return 1433
	}
}

func connectToDatabase(cfg models.DBConnectionConfig) *sql.DB {
	db, err := sql.Open(cfg.GetDriverName(), cfg.BuildConnectionString())
	if err != nil {
		panic(err)
	}
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)
	if cfg.Type == models.DBTypeSQLite {
		// every new connection to an in-memory sqlite database is a fresh database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		panic(fmt.Sprintf("Failed to connect to %s database: %v", cfg.Type, err))
	}
	return db
}

func initLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(output).Level(lvl).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}
