package models

import (
	"fmt"
	"net/url"
	"strings"
)

type DBType string

const (
	DBTypeSQLServer DBType = "sqlserver"
	DBTypePostgres  DBType = "postgres"
	DBTypeMySQL     DBType = "mysql"
	DBTypeSQLite    DBType = "sqlite"
)

// ParseDBType maps a configuration value to a DBType. Empty input falls back to SQL Server,
// the engine the property-tax view lives on.
func ParseDBType(raw string) (DBType, error) {
	switch DBType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DBTypeSQLServer, "mssql":
		return DBTypeSQLServer, nil
	case DBTypePostgres, "postgresql":
		return DBTypePostgres, nil
	case DBTypeMySQL:
		return DBTypeMySQL, nil
	case DBTypeSQLite:
		return DBTypeSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", raw)
	}
}

type DBConnectionConfig struct {
	Type     DBType `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	// DSN overrides the connection string built from the other fields.
	DSN string `json:"dsn"`
}

func (slf DBConnectionConfig) GetDriverName() string {
	switch slf.Type {
	case DBTypePostgres:
		return "pgx"
	case DBTypeMySQL:
		return "mysql"
	case DBTypeSQLite:
		return "sqlite"
	default:
		return "sqlserver"
	}
}

func (slf DBConnectionConfig) BuildConnectionString() string {
	if slf.DSN != "" {
		return slf.DSN
	}

	switch slf.Type {
	case DBTypePostgres:
		sslMode := slf.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			slf.Host, slf.Port, slf.Username, slf.Password, slf.Database, sslMode)
	case DBTypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			slf.Username, slf.Password, slf.Host, slf.Port, slf.Database)
	case DBTypeSQLite:
		if slf.Database == "" {
			return ":memory:"
		}
		return slf.Database
	default:
		query := url.Values{}
		query.Set("database", slf.Database)
		switch strings.ToLower(slf.SSLMode) {
		case "", "disable":
			query.Set("encrypt", "disable")
		case "require", "true":
			query.Set("encrypt", "true")
		default:
			query.Set("encrypt", slf.SSLMode)
		}
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(slf.Username, slf.Password),
			Host:     fmt.Sprintf("%s:%d", slf.Host, slf.Port),
			RawQuery: query.Encode(),
		}
		return u.String()
	}
}

// SelectOneRow returns the "fetch one row, all columns" statement for the dialect.
func (slf DBConnectionConfig) SelectOneRow(view string) string {
	return slf.selectOne("*", view)
}

// SelectOneRowColumns returns the "fetch one row, explicit column list" statement for the dialect.
func (slf DBConnectionConfig) SelectOneRowColumns(view string, columns []string) string {
	return slf.selectOne(strings.Join(columns, ", "), view)
}

func (slf DBConnectionConfig) selectOne(projection string, view string) string {
	if slf.Type == DBTypeSQLServer || slf.Type == "" {
		return fmt.Sprintf("SELECT TOP 1 %s FROM %s", projection, view)
	}
	return fmt.Sprintf("SELECT %s FROM %s LIMIT 1", projection, view)
}
