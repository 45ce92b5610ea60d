package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Draft.Rules.Slots)
	assert.Equal(t, 2, cfg.Draft.Rules.PicksPerParticipant)
	assert.Equal(t, 8, cfg.Draft.Rules.Quota())
	assert.Equal(t, 2*time.Hour, cfg.Draft.IdleTTL)
	assert.Len(t, cfg.Draft.Rosters, 2)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rosters:
  - team: KC
    players: [Mahomes, Kelce, Rice]
  - team: BUF
    players: [Allen, Cook]
`), 0o600))

	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("DRAFT_SLOTS", "2")
	t.Setenv("DRAFT_PICKS_PER_PARTICIPANT", "1")
	t.Setenv("DRAFT_TOTAL_PICKS", "5")
	t.Setenv("DRAFT_ROSTERS_FILE", path)
	t.Setenv("LOBBY_IDLE_TTL_MINUTES", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.GetAddr())
	assert.Equal(t, 5, cfg.Draft.Rules.Quota())
	assert.Zero(t, cfg.Draft.IdleTTL)
	require.Len(t, cfg.Draft.Rosters, 2)
	assert.Equal(t, "BUF", cfg.Draft.Rosters[1].Team)
	assert.Equal(t, []string{"Allen", "Cook"}, cfg.Draft.Rosters[1].Players)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_LogFormatFollowsEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "json", cfg.Logging.Format)

	t.Setenv("LOG_FORMAT", "console")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_RejectsImpossibleQuota(t *testing.T) {
	t.Setenv("DRAFT_TOTAL_PICKS", "500")
	_, err := Load()
	assert.ErrorContains(t, err, "exceeds")
}

func TestLoadRosters_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRosters(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte(`
rosters:
  - team: A
    players: [X]
  - team: B
    players: [X]
`), 0o600))
	_, err = LoadRosters(dup)
	assert.ErrorContains(t, err, "listed in both")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rosters: ["), 0o600))
	_, err = LoadRosters(bad)
	assert.ErrorContains(t, err, "parse rosters")
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger(LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
