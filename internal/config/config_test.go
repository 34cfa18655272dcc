package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DatabaseLocal, cfg.DatabaseType)
	assert.Equal(t, "compliance_db.json", cfg.LocalDBPath)
	assert.Equal(t, "compliance_data", cfg.Collection)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.UseFirestore())
	assert.NotEmpty(t, cfg.Warnings) // missing JWT_SECRET warns
}

func TestLoadFromEnv_Port(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
}

func TestLoadFromEnv_Firestore(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "demo-project")
	t.Setenv("FIRESTORE_DATABASE", "compliance")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.UseFirestore())
	assert.Equal(t, "demo-project", cfg.FirestoreProject)
	assert.Equal(t, "compliance", cfg.FirestoreDatabase)
}

func TestLoadFromEnv_FirestoreRequiresProject(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIRESTORE_PROJECT_ID")
}

func TestLoadFromEnv_BadDatabaseType(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "tinydb")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_TYPE")
}

func TestLoadFromEnv_CronRequiresScope(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("COLLECT_CRON", "@hourly")
	t.Setenv("COLLECT_SCOPE", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLLECT_SCOPE")
}

func TestLoadFromEnv_ProductionValidation(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://console.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://console.example.com"}, cfg.CORSAllowedOrigins)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel().String(), "level %q", tt.level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nDOTENV_TEST_KEY=hello\nDOTENV_QUOTED='world'\n\nBADLINE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DOTENV_TEST_KEY", "")
	t.Setenv("DOTENV_QUOTED", "")
	// os.Setenv inside LoadDotEnv persists; t.Setenv above ensures cleanup.
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("DOTENV_TEST_KEY"))
	assert.Equal(t, "world", os.Getenv("DOTENV_QUOTED"))

	// Missing file is not an error.
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadDotEnv_UnreadablePath(t *testing.T) {
	// A directory opens fine but fails on read; the error must surface so
	// callers can report a broken dotenv file instead of ignoring it.
	require.Error(t, LoadDotEnv(t.TempDir()))
}

func TestLoadDotEnv_EnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRECEDENCE_KEY=fromfile\n"), 0o600))

	t.Setenv("PRECEDENCE_KEY", "fromenv")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "fromenv", os.Getenv("PRECEDENCE_KEY"))
}
