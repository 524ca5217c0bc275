package service

import (
	"context"
	"database/sql"
	"fmt"
	"intelliquery"
	"intelliquery/internal/api/handler/response"
	"intelliquery/internal/api/models"
	"time"
)

type DBHealthService struct {
	db     *sql.DB
	dbType models.DBType
}

func NewDBHealthService() *DBHealthService {
	return NewDBHealthServiceWithDB(intelliquery.DB, intelliquery.GetConfig().MainDatabase.Type)
}

func NewDBHealthServiceWithDB(db *sql.DB, dbType models.DBType) *DBHealthService {
	return &DBHealthService{db: db, dbType: dbType}
}

// Check pings the configured database and reports its server version when it can be read.
func (slf *DBHealthService) Check(ctx context.Context) response.TestConnectionResult {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := slf.db.PingContext(ctx); err != nil {
		return response.TestConnectionResult{
			Success: false,
			Message: fmt.Sprintf("Failed to ping database: %v", err),
		}
	}

	version := "Unknown"
	if versionQuery := getVersionQuery(slf.dbType); versionQuery != "" {
		if err := slf.db.QueryRowContext(ctx, versionQuery).Scan(&version); err != nil {
			version = "Unknown"
		}
	}

	return response.TestConnectionResult{
		Success: true,
		Message: "Connection successful",
		Version: version,
	}
}

func getVersionQuery(dbType models.DBType) string {
	switch dbType {
	case models.DBTypePostgres, models.DBTypeMySQL:
		return "SELECT version()"
	case models.DBTypeSQLServer:
		return "SELECT @@VERSION"
	case models.DBTypeSQLite:
		return "SELECT sqlite_version()"
	default:
		return ""
	}
}
