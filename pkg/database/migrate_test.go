package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndEmbedded(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_kv_store.sql", names[0])
	assert.IsIncreasing(t, names)

	sql, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "PRIMARY KEY (bucket, key)")
}
