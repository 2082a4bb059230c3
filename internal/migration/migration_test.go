package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestApplyRequiresHandle(t *testing.T) {
	_, err := Apply(nil)
	assert.Error(t, err)
}

func TestApplyCreatesDiceRollsWithoutVersioning(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	result, err := Apply(conn)
	require.NoError(t, err)
	assert.False(t, result.Versioned)
	assert.True(t, conn.Migrator().HasTable("dice_rolls"))

	_, err = Apply(conn)
	assert.NoError(t, err)
}
