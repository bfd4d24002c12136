package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"source": "data_jobs_salary_all.xlsx",
		"sheet": "Sheet1",
		"out_dir": "./csv",
		"driver": "sqlite",
		"database_url": "jobs.db",
		"transactional": true,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "data_jobs_salary_all.xlsx", cfg.Source)
	assert.Equal(t, "Sheet1", cfg.Sheet)
	assert.Equal(t, "./csv", cfg.OutDir)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "jobs.db", cfg.DatabaseURL)
	assert.True(t, cfg.Transactional)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.InitSchema)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := "source: postings.csv\nout_dir: out\ninit_schema: true\ndriver: postgres\n"

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "postings.csv", cfg.Source)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.True(t, cfg.InitSchema)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("source: [unterminated"), 0644))

	_, err := LoadConfig(tmpFile)
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_Driver(t *testing.T) {
	cfg := &Config{Driver: "mysql"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'driver' failed oneof=postgres sqlite")

	for _, d := range []string{"", "postgres", "sqlite"} {
		assert.NoError(t, (&Config{Driver: d}).Validate(), d)
	}
}

func TestValidate_RulesFileMissing(t *testing.T) {
	cfg := &Config{Rules: "/nonexistent/rules.json"}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "rules file not found")
}

func TestValidate_SourceExtension(t *testing.T) {
	assert.ErrorContains(t, (&Config{Source: "postings.json"}).Validate(), "'source' must be an .xlsx or .csv file")
	assert.NoError(t, (&Config{Source: "postings.XLSX"}).Validate())
	assert.NoError(t, (&Config{Source: "postings.csv"}).Validate())
}

func TestValidate_ValidConfig(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("version: x\n"), 0644))

	cfg := &Config{
		Source: "data.xlsx",
		OutDir: "csv",
		Rules:  rules,
		Driver: "postgres",
	}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		Source: "from-flag.xlsx",
	}

	defaults := Config{
		Source:        "from-config.xlsx",
		OutDir:        "config-out",
		Driver:        "sqlite",
		DatabaseURL:   "jobs.db",
		Transactional: true,
	}

	result := cfg.MergeWithDefaults(defaults)

	// CLI values should be preserved
	assert.Equal(t, "from-flag.xlsx", result.Source)

	// Defaults should fill empty values
	assert.Equal(t, "config-out", result.OutDir)
	assert.Equal(t, "sqlite", result.Driver)
	assert.Equal(t, "jobs.db", result.DatabaseURL)
	assert.True(t, result.Transactional)
	assert.False(t, result.Verbose)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := &Config{
		Source: "test.csv",
		Reset:  true,
	}

	result := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "test.csv", result.Source)
	assert.True(t, result.Reset)
	assert.Empty(t, result.OutDir)
}

func TestWithEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://env/db")

	assert.Equal(t, "postgres://env/db", Config{}.WithEnv().DatabaseURL)
	assert.Equal(t, "postgres://flag/db", Config{DatabaseURL: "postgres://flag/db"}.WithEnv().DatabaseURL)
}
