package lineedit

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kungfusheep/lineedit/internal/cursormath"
	"github.com/kungfusheep/lineedit/internal/displaysync"
	"github.com/kungfusheep/lineedit/internal/history"
)

// EditorConfig is the persisted tuning surface for an embedded Core: history
// ring sizing/dedup policy, line length limits, tab expansion width, and the
// display divergence retry budget. It is the YAML-shaped counterpart to the
// Option values passed to New.
type EditorConfig struct {
	HistoryCapacity        int  `yaml:"history_capacity"`
	HistoryIgnoreDuplicate bool `yaml:"history_ignore_duplicate"`
	HistoryIgnoreSpace     bool `yaml:"history_ignore_space"`
	HistoryCaseSensitive   bool `yaml:"history_case_sensitive"`
	MaxLineLength          int  `yaml:"max_line_length"`
	TabWidth               int  `yaml:"tab_width"`
	MaxDivergenceRetries   int  `yaml:"max_divergence_retries"`
}

// DefaultEditorConfig returns the built-in tuning values, matching
// history.DefaultConfig, cursormath's default tab width, and
// displaysync.DefaultMaxDivergence.
func DefaultEditorConfig() EditorConfig {
	hcfg := history.DefaultConfig()
	return EditorConfig{
		HistoryCapacity:        hcfg.Capacity,
		HistoryIgnoreDuplicate: hcfg.IgnoreDuplicate,
		HistoryIgnoreSpace:     hcfg.IgnoreSpace,
		HistoryCaseSensitive:   hcfg.CaseSensitive,
		MaxLineLength:          hcfg.MaxLineLength,
		TabWidth:               cursormath.TabWidth,
		MaxDivergenceRetries:   displaysync.DefaultMaxDivergence,
	}
}

// LoadEditorConfig reads a YAML config file at path. A missing file yields
// DefaultEditorConfig, mirroring History's own "missing file is empty"
// load contract rather than treating absence as an error.
func LoadEditorConfig(path string) (EditorConfig, error) {
	cfg := DefaultEditorConfig()
	if path == "" {
		return cfg, errors.New("lineedit: config path required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DefaultEditorConfig(), fmt.Errorf("lineedit: parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// SaveEditorConfig marshals cfg to YAML and writes it to path.
func SaveEditorConfig(path string, cfg EditorConfig) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("lineedit: marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("lineedit: write config: %w", err)
	}
	return nil
}

// applyDefaults fills zero-valued fields after a partial YAML document,
// the same way a fragment like "tab_width: 4" on its own shouldn't zero out
// history capacity.
func (c *EditorConfig) applyDefaults() {
	defaults := DefaultEditorConfig()
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = defaults.HistoryCapacity
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = defaults.MaxLineLength
	}
	if c.TabWidth <= 0 {
		c.TabWidth = defaults.TabWidth
	}
	if c.MaxDivergenceRetries <= 0 {
		c.MaxDivergenceRetries = defaults.MaxDivergenceRetries
	}
}

// HistoryConfig converts c into a history.Config ready for history.New.
func (c EditorConfig) HistoryConfig() history.Config {
	return history.Config{
		Capacity:        c.HistoryCapacity,
		MaxLineLength:   c.MaxLineLength,
		IgnoreSpace:     c.HistoryIgnoreSpace,
		IgnoreDuplicate: c.HistoryIgnoreDuplicate,
		CaseSensitive:   c.HistoryCaseSensitive,
	}
}
