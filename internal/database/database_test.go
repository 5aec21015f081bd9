package database

import (
	"testing"

	"github.com/damoang/angple-wiki/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, sqlDB.Ping())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "postgres"}, gormlogger.Silent)
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open(config.DatabaseConfig{Driver: "mysql", DSN: "::not a dsn"}, gormlogger.Silent)
	assert.Error(t, err)
}
