package config_test

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-air/oirindex/internal/config"
)

func TestEmptyConfig_Defaults(t *testing.T) {
	t.Parallel()
	c := config.EmptyConfig()
	assert.Equal(t, 12, c.GetPrecision())
	assert.Equal(t, 0, c.GetCacheSize())

	owner, err := c.GetInitialOwner()
	require.NoError(t, err)
	assert.Zero(t, owner)

	allowed, err := c.GetInitialAllowed()
	require.NoError(t, err)
	assert.Empty(t, allowed)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()
	ownerHex := hex.EncodeToString(make([]byte, 20))
	path := writeConfig(t, `{"precision": 8, "cache_size": 256, "initial_owner": "`+ownerHex+`"}`)

	c, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.GetPrecision())
	assert.Equal(t, 256, c.GetCacheSize())

	owner, err := c.GetInitialOwner()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(owner[:]), ownerHex)
}

func TestLoadConfig_RejectsNonJSONExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "system.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsOversizedFile(t *testing.T) {
	t.Parallel()
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = ' '
	}
	path := writeConfig(t, string(big))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_RejectsOutOfRangePrecision(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `{"precision": 17}`)
	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_RejectsNegativeCacheSize(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `{"cache_size": -1}`)
	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestGetInitialAllowed_MultipleEntries(t *testing.T) {
	t.Parallel()
	h1 := hex.EncodeToString(append(make([]byte, 19), 1))
	h2 := hex.EncodeToString(append(make([]byte, 19), 2))
	path := writeConfig(t, `{"initial_allowed": ["`+h1+`", "`+h2+`"]}`)

	c, err := config.LoadConfig(path)
	require.NoError(t, err)
	allowed, err := c.GetInitialAllowed()
	require.NoError(t, err)
	require.Len(t, allowed, 2)
	assert.Equal(t, hex.EncodeToString(allowed[0][:]), h1)
	assert.Equal(t, hex.EncodeToString(allowed[1][:]), h2)
}

func TestMustLoadDefaultConfig_FindsRepoDefaults(t *testing.T) {
	t.Parallel()
	c := config.MustLoadDefaultConfig()
	assert.Equal(t, 12, c.GetPrecision())
	assert.Equal(t, 0, c.GetCacheSize())
}

func TestGetInitialOwner_InvalidHexLength(t *testing.T) {
	t.Parallel()
	c := config.EmptyConfig()
	bad := "deadbeef"
	c.InitialOwnerHex = &bad
	_, err := c.GetInitialOwner()
	assert.Error(t, err)
}
