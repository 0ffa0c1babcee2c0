package config

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busticket/internal/db"
)

func TestReady(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing()
	mock.ExpectQuery(`information_schema.tables`).WithArgs("routes").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("routes"))
	mock.ExpectQuery(`information_schema.tables`).WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	err = Ready(context.Background(), sqlDB, db.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bookings is missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}
