// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type IdentityCfg struct {
	Email    string `yaml:"email" json:"email"`
	DailyCap int    `yaml:"daily_cap" json:"daily_cap"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Browser struct {
		Headless   bool   `yaml:"headless" json:"headless"`
		ChromePath string `yaml:"chrome_path" json:"chrome_path"`
	} `yaml:"browser" json:"browser"`

	Discovery struct {
		MaxTargetsPerRun int     `yaml:"max_targets_per_run" json:"max_targets_per_run"`
		MaxRowsPerTarget int     `yaml:"max_rows_per_target" json:"max_rows_per_target"`
		MinDelaySeconds  float64 `yaml:"min_delay_seconds" json:"min_delay_seconds"`
		MaxDelaySeconds  float64 `yaml:"max_delay_seconds" json:"max_delay_seconds"`
	} `yaml:"discovery" json:"discovery"`

	Apollo struct {
		DailyCap int `yaml:"daily_cap" json:"daily_cap"`
	} `yaml:"apollo" json:"apollo"`

	LinkedIn struct {
		Identities []IdentityCfg `yaml:"identities" json:"identities"`
	} `yaml:"linkedin" json:"linkedin"`

	Compose struct {
		Model string `yaml:"model" json:"model"`
	} `yaml:"compose" json:"compose"`

	Email struct {
		Enabled     bool     `yaml:"enabled" json:"enabled"`
		IMAPHost    string   `yaml:"imap_host" json:"imap_host"`
		IMAPPort    int      `yaml:"imap_port" json:"imap_port"`
		Username    string   `yaml:"username" json:"username"`
		Mailbox     string   `yaml:"mailbox" json:"mailbox"`
		PollSeconds int      `yaml:"poll_seconds" json:"poll_seconds"`
		SubjectAny  []string `yaml:"subject_any" json:"subject_any"`
	} `yaml:"email" json:"email"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
