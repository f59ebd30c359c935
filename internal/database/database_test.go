package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestHealthCheck(t *testing.T) {
	gdb, mock := mockDB(t)
	prev := GetDB()
	SetDB(gdb)
	t.Cleanup(func() { SetDB(prev) })

	mock.ExpectPing()

	latency, err := HealthCheck()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency.Nanoseconds(), int64(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckReportsPingFailure(t *testing.T) {
	gdb, mock := mockDB(t)
	prev := GetDB()
	SetDB(gdb)
	t.Cleanup(func() { SetDB(prev) })

	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err := HealthCheck()
	assert.Error(t, err)
}

func TestHealthCheckUninitialized(t *testing.T) {
	prev := GetDB()
	SetDB(nil)
	t.Cleanup(func() { SetDB(prev) })

	_, err := HealthCheck()
	assert.Error(t, err)
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:database_migrate_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{
		"storage_drives", "media_assets", "physical_locations", "projects",
		"archive_jobs", "archive_job_items", "archive_job_logs",
		"drive_health_checks", "drive_movements",
	} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
}
