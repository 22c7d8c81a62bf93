package repository

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDatabaseEnv names a disposable PostgreSQL database in postgres:// form.
// Tests that need it are skipped when it is unset.
const testDatabaseEnv = "INCREMENTUM_TEST_DATABASE_URL"

var (
	migrateOnce sync.Once
	migrateErr  error
)

func migrateUp(url string) error {
	m, err := migrate.New("file://../../migrations", url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// newTestDB migrates the test database once per run and empties it for the
// calling test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	migrateOnce.Do(func() { migrateErr = migrateUp(url) })
	require.NoError(t, migrateErr)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("TRUNCATE bars, symbols").Error)
	return db
}
