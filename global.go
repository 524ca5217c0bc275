package intelliquery

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	DB     *sql.DB
	Logger zerolog.Logger
	// Redis stays nil when no REDIS_HOST is configured; the audit trail is then disabled.
	Redis *redis.Client
)
