package service

import (
	"context"
	"errors"
	"intelliquery/internal/api/models"
	"intelliquery/pkg"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaService_ColumnsWithoutProviders(t *testing.T) {
	db := newSQLiteDB(t)
	schema := NewSchemaServiceWithDB(db, models.DBConnectionConfig{Type: models.DBTypeSQLite}, models.DefaultSchemaProfile())

	columns, err := schema.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"owner_name", "city", "zip_code", "tax_amount"}, columns)

	row, err := schema.SampleRow(context.Background(), []string{"owner_name", "city"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", row["owner_name"])
	assert.Equal(t, "Springfield", row["city"])
}

func TestSchemaService_Errors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	schema := NewSchemaServiceWithDB(db, models.DBConnectionConfig{Type: models.DBTypeSQLServer}, models.DefaultSchemaProfile())

	mock.ExpectQuery(introspectStatement).WillReturnError(errors.New("login failed"))
	_, err = schema.Columns(context.Background())
	assert.ErrorIs(t, err, pkg.ErrSchemaIntrospection)

	mock.ExpectQuery(sampleStatement).WillReturnError(errors.New("timeout"))
	_, err = schema.SampleRow(context.Background(), []string{"owner_name", "city", "zip_code"})
	assert.ErrorIs(t, err, pkg.ErrSampleFetch)
	assert.NoError(t, mock.ExpectationsWereMet())
}
