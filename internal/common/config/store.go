package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "easyapply/internal/common/errors"
)

// Settings is the subset of the config the dashboard may edit.
type Settings struct {
	JobKeywords     []string `json:"job_keywords"`
	MaxApplications int      `json:"max_applications"`
	DryRun          bool     `json:"dry_run"`
}

// SettingsOf extracts the editable subset from a loaded config.
func SettingsOf(cfg *Config) Settings {
	return Settings{
		JobKeywords:     append([]string(nil), cfg.JobKeywords...),
		MaxApplications: cfg.MaxApplications,
		DryRun:          cfg.DryRun,
	}
}

// Normalize trims keywords and drops empty ones, e.g. from "a, ,b".
func (s *Settings) Normalize() error {
	keywords := make([]string, 0, len(s.JobKeywords))
	for _, k := range s.JobKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	s.JobKeywords = keywords

	if len(s.JobKeywords) == 0 {
		return apperrors.NewConfigInvalidError("at least one job keyword is required")
	}
	if s.MaxApplications < 1 {
		return apperrors.NewConfigInvalidError("max_applications must be at least 1")
	}
	return nil
}

// UpdateSettings rewrites the editable keys of the config file in place.
// Every other key, including secrets and ordered mappings, is carried over byte for byte.
func UpdateSettings(path string, s Settings) error {
	if err := s.Normalize(); err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return apperrors.NewConfigInvalidError(fmt.Sprintf("config file is not a JSON object: %v", err))
	}

	for key, value := range map[string]interface{}{
		"job_keywords":     s.JobKeywords,
		"max_applications": s.MaxApplications,
		"dry_run":          s.DryRun,
	} {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		doc[key] = encoded
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := ValidateDocument(out); err != nil {
		return apperrors.NewConfigInvalidError(err.Error())
	}

	return writeFileAtomic(path, append(out, '\n'))
}

// writeFileAtomic replaces path via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode())
	}
	return os.Rename(tmp.Name(), path)
}
