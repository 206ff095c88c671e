package database

import (
	"testing"

	"accounts/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigratesSchema(t *testing.T) {
	db, err := Open(DriverSQLite, "file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Address{}))
	assert.True(t, db.Migrator().HasColumn(&models.User{}, "addresses"))
	assert.True(t, db.Migrator().HasColumn(&models.Address{}, "owner_id"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mongo", "mongodb://localhost")
	assert.ErrorContains(t, err, "unsupported database driver")
}
