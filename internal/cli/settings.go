package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vk/appmodel/internal/app"
)

// settings.toml key mapping to app.Config.
type fileSettings struct {
	DB        string `toml:"db"`
	Session   string `toml:"session"`
	App       string `toml:"app"`
	Out       string `toml:"out"`
	Workers   int    `toml:"workers"`
	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`
	Publish   struct {
		URL       string `toml:"url"`
		Namespace string `toml:"namespace"`
		Insecure  bool   `toml:"insecure_skip_verify"`
		Timeout   string `toml:"timeout"`
	} `toml:"publish"`
}

// loadSettings overlays the keys defined in the TOML file at path onto cfg.
// Unknown keys are rejected.
func loadSettings(path string, cfg *app.Config) error {
	var raw fileSettings
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("load settings: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("db") {
		cfg.DBPath = strings.TrimSpace(raw.DB)
	}
	if meta.IsDefined("session") {
		cfg.SessionID = strings.TrimSpace(raw.Session)
	}
	if meta.IsDefined("app") {
		cfg.AppID = strings.TrimSpace(raw.App)
	}
	if meta.IsDefined("out") {
		cfg.OutDir = strings.TrimSpace(raw.Out)
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw.LogFormat))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if meta.IsDefined("publish", "url") {
		cfg.PublishURL = strings.TrimSpace(raw.Publish.URL)
	}
	if meta.IsDefined("publish", "namespace") {
		cfg.PublishNamespace = strings.TrimSpace(raw.Publish.Namespace)
	}
	if meta.IsDefined("publish", "insecure_skip_verify") {
		cfg.PublishInsecure = raw.Publish.Insecure
	}
	if meta.IsDefined("publish", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Publish.Timeout))
		if err != nil {
			return fmt.Errorf("load settings: publish.timeout: %w", err)
		}
		cfg.PublishTimeout = d
	}
	return nil
}
