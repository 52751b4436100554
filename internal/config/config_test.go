package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastymetrics/pkg/models"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TASTYMETRICS_CONFIG", file)
	return file
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Profiles)
	assert.False(t, Exists())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	useTempConfig(t)

	cfg := &models.Config{
		DefaultProfile: "prod",
		Profiles: []models.Profile{
			{
				Name:      "prod",
				Account:   "xy12345.us-east-1",
				Username:  "reporter",
				Role:      "SYSADMIN",
				Warehouse: "COMPUTE_WH",
				Database:  "TASTY_BYTES_SAMPLE_DATA",
				Schema:    "ANALYTICS",
			},
		},
		Reports: models.ReportDefaults{
			StartDate: "2022-01-01",
			EndDate:   "2022-10-31",
			Countries: []string{"United States"},
		},
		Packs: []models.QueryPack{
			{Name: "finance", GitURL: "https://example.com/finance-queries.git", Branch: "main"},
		},
	}

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultProfile, loaded.DefaultProfile)
	assert.Equal(t, cfg.Profiles, loaded.Profiles)
	assert.Equal(t, "2022-01-01", loaded.Reports.StartDate)
	require.Len(t, loaded.Packs, 1)
	assert.Equal(t, "finance", loaded.Packs[0].Name)
}

func TestLoadAppliesDefaults(t *testing.T) {
	useTempConfig(t)

	require.NoError(t, Save(&models.Config{}))
	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "table", loaded.Reports.Format)
	assert.Equal(t, ":8080", loaded.Server.Addr)
	assert.Equal(t, "5m", loaded.Cache.TTL)
}

func TestSaveUsesRestrictivePermissions(t *testing.T) {
	file := useTempConfig(t)

	require.NoError(t, Save(&models.Config{}))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEncryptDecryptPassword(t *testing.T) {
	t.Setenv("TASTYMETRICS_ENCRYPTION_KEY", "unit-test-key")

	encrypted, err := EncryptPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(encrypted))
	assert.NotContains(t, encrypted, "s3cret")

	// Encrypting an already encrypted value is a no-op.
	again, err := EncryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, encrypted, again)

	decrypted, err := DecryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", decrypted)
}

func TestDecryptPlaintextPassesThrough(t *testing.T) {
	out, err := DecryptPassword("plaintext")
	require.NoError(t, err)
	assert.Equal(t, "plaintext", out)
}

func TestEncryptEmptyPassword(t *testing.T) {
	out, err := EncryptPassword("")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestDecryptRejectsCorruptCiphertext(t *testing.T) {
	t.Setenv("TASTYMETRICS_ENCRYPTION_KEY", "unit-test-key")

	_, err := DecryptPassword("ENC[not-base64!!]")
	assert.Error(t, err)
}

func TestPackDir(t *testing.T) {
	useTempConfig(t)
	dir := PackDir("finance")
	assert.Equal(t, filepath.Join(GetConfigPath(), "packs", "finance"), dir)
}
