package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestNewDatabaseInitializer(t *testing.T) {
	tests := []struct {
		dbType DatabaseType
		want   DatabaseType
	}{
		{SQLite, SQLite},
		{MySQL, MySQL},
		{PostgreSQL, PostgreSQL},
		{DatabaseType("oracle"), SQLite},
	}

	for _, tt := range tests {
		t.Run(string(tt.dbType), func(t *testing.T) {
			assert.Equal(t, tt.want, NewDatabaseInitializer(tt.dbType).Type())
		})
	}
}

func TestSQLiteInitializer_Initialize(t *testing.T) {
	database, err := NewDatabaseInitializer(SQLite).Initialize(DatabaseConfig{Type: SQLite, DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("app:secret@tcp(localhost:3306)/freight")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}

func TestMigrationDriverRegistry(t *testing.T) {
	registry := NewMigrationDriverRegistry()

	for _, dbType := range []DatabaseType{SQLite, MySQL, PostgreSQL} {
		factory, err := registry.GetFactory(dbType)
		require.NoError(t, err)
		assert.Equal(t, dbType, factory.Type())
	}

	_, err := registry.GetFactory(DatabaseType("oracle"))
	assert.Error(t, err)
}
