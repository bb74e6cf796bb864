package config

import (
	"os"
	"strings"
	"testing"

	apperrors "easyapply/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateSettings_PreservesOtherKeys(t *testing.T) {
	clearSecretEnv(t)
	path := writeConfig(t, sampleConfig)

	err := UpdateSettings(path, Settings{
		JobKeywords:     []string{" platform engineer ", "", "sre"},
		MaxApplications: 7,
		DryRun:          false,
	})
	require.NoError(t, err)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"platform engineer", "sre"}, cfg.JobKeywords)
	assert.Equal(t, 7, cfg.MaxApplications)
	assert.False(t, cfg.DryRun)

	// untouched keys survive, including mapping order and secrets
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, []string{"years", "authorized", "sponsorship", "remote"}, cfg.Answers.Keys())
	assert.Equal(t, []string{"engineer", "developer"}, cfg.ResumeMapping.Keys())
	assert.Equal(t, 9000, cfg.Frontend.Port)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "\n"))
}

func TestUpdateSettings_Rejects(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = UpdateSettings(path, Settings{JobKeywords: []string{" "}, MaxApplications: 2})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))

	err = UpdateSettings(path, Settings{JobKeywords: []string{"go"}, MaxApplications: 0})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected updates must not touch the file")
}

func TestSettingsOf(t *testing.T) {
	cfg := &Config{JobKeywords: []string{"go"}, MaxApplications: 4, DryRun: true}
	s := SettingsOf(cfg)
	s.JobKeywords[0] = "changed"

	assert.Equal(t, "go", cfg.JobKeywords[0])
	assert.Equal(t, 4, s.MaxApplications)
	assert.True(t, s.DryRun)
}
