package service

import (
	"context"
	"database/sql"
	"fmt"
	"intelliquery"
	"intelliquery/internal/api/models"
	"intelliquery/pkg"
)

// SchemaService reads the shape of the configured view. It needs only the database and the
// schema profile, never a model provider.
type SchemaService struct {
	db         *sql.DB
	connection models.DBConnectionConfig
	profile    models.SchemaProfile
}

func NewSchemaService() (*SchemaService, error) {
	cfg := intelliquery.GetConfig()
	profile, err := models.LoadSchemaProfile(cfg.Schema.ProfilePath)
	if err != nil {
		return nil, err
	}
	return NewSchemaServiceWithDB(intelliquery.DB, cfg.MainDatabase, profile), nil
}

func NewSchemaServiceWithDB(db *sql.DB, connection models.DBConnectionConfig, profile models.SchemaProfile) *SchemaService {
	return &SchemaService{db: db, connection: connection, profile: profile}
}

// Columns introspects the view on its own connection and returns its ordered column names.
func (slf *SchemaService) Columns(ctx context.Context) ([]string, error) {
	statement := slf.connection.SelectOneRow(slf.profile.View)
	columns, err := pkg.FetchColumnNames(ctx, slf.db, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrSchemaIntrospection, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s returned no columns", pkg.ErrSchemaIntrospection, slf.profile.View)
	}
	return columns, nil
}

// SampleRow reads one row of the given columns on its own connection. An empty view yields nil.
func (slf *SchemaService) SampleRow(ctx context.Context, columns []string) (map[string]any, error) {
	statement := slf.connection.SelectOneRowColumns(slf.profile.View, columns)
	row, err := pkg.FetchFirstRow(ctx, slf.db, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrSampleFetch, err)
	}
	return row, nil
}
