package pkg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"
)

var ErrUnsafeStatement = errors.New("statement rejected: only read-only SELECT statements are allowed")

// writeKeywords never belong in a question answered by a single SELECT.
var writeKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "MERGE": {}, "UPSERT": {}, "REPLACE": {},
	"DROP": {}, "ALTER": {}, "CREATE": {}, "TRUNCATE": {}, "RENAME": {},
	"GRANT": {}, "REVOKE": {}, "DENY": {},
	"EXEC": {}, "EXECUTE": {}, "CALL": {}, "INTO": {},
	"BACKUP": {}, "RESTORE": {}, "SHUTDOWN": {}, "KILL": {},
	"ATTACH": {}, "DETACH": {}, "PRAGMA": {}, "COPY": {},
}

// IsSafeSelect reports whether sql is a single read-only SELECT.
// Statements the MySQL-flavoured parser cannot read (SQL Server's TOP for instance) go through
// a stricter lexical check instead.
func IsSafeSelect(sql string) bool {
	stmt, err := sqlparser.Parse(sql)
	if err == nil {
		switch stmt.(type) {
		case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect:
			return true
		default:
			return false
		}
	}
	return isLexicallySafeSelect(sql)
}

func isLexicallySafeSelect(sql string) bool {
	body := strings.TrimSpace(stripStringLiterals(sql))
	body = strings.TrimSpace(strings.TrimSuffix(body, ";"))
	if body == "" {
		return false
	}
	if strings.Contains(body, ";") || strings.Contains(body, "--") || strings.Contains(body, "/*") {
		return false
	}

	words := strings.FieldsFunc(strings.ToUpper(body), func(r rune) bool {
		return !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	if len(words) == 0 || words[0] != "SELECT" {
		return false
	}
	for _, word := range words {
		if _, forbidden := writeKeywords[word]; forbidden {
			return false
		}
	}
	return true
}

func stripStringLiterals(sql string) string {
	var out strings.Builder
	for i := 0; i < len(sql); {
		if sql[i] == '\'' {
			i = skipStringLiteral(sql, i)
			out.WriteString("''")
			continue
		}
		out.WriteByte(sql[i])
		i++
	}
	return out.String()
}

// withConn scopes a single pooled connection to fn and always hands it back afterwards.
func withConn(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// FetchColumnNames runs statement and returns the ordered column names of its result set.
// Rows are not required: an empty view still reports its columns.
func FetchColumnNames(ctx context.Context, db *sql.DB, statement string) ([]string, error) {
	var columns []string
	err := withConn(ctx, db, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, statement)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err = rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read columns: %w", err)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// FetchFirstRow returns the first row of statement keyed by column name, or nil when the
// result set is empty.
func FetchFirstRow(ctx context.Context, db *sql.DB, statement string) (map[string]any, error) {
	var row map[string]any
	err := withConn(ctx, db, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, statement)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read columns: %w", err)
		}
		if !rows.Next() {
			return rows.Err()
		}

		values, err := scanValues(rows, len(columns))
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		row = make(map[string]any, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// QueryScalar returns the first column of the first row, or nil when there is no row.
// Driver errors come back unwrapped since their text is shown to the user.
func QueryScalar(ctx context.Context, db *sql.DB, statement string) (any, error) {
	var scalar any
	err := withConn(ctx, db, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, statement)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		if len(columns) == 0 || !rows.Next() {
			return rows.Err()
		}

		values, err := scanValues(rows, len(columns))
		if err != nil {
			return err
		}
		scalar = values[0]
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return scalar, nil
}

func scanValues(rows *sql.Rows, count int) ([]any, error) {
	values := make([]any, count)
	pointers := make([]any, count)
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, err
	}
	for i, value := range values {
		if b, ok := value.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}
