package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the portalctl configuration file.
//
//	backend_url: https://api.example.com
//	company: acme
//	session_file: ~/.config/portalctl/session.json
//	session_secret: ${PORTALCTL_SECRET}
//	timeout: 15s
type Profile struct {
	BackendURL    string        `yaml:"backend_url"`
	Company       string        `yaml:"company"`
	SessionFile   string        `yaml:"session_file"`
	SessionSecret string        `yaml:"session_secret"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	LogLevel      string        `yaml:"log_level"`
}

// DefaultProfilePath is ~/.config/portalctl/config.yaml.
func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "portalctl", "config.yaml")
}

// LoadProfile reads path, expanding ${VAR} references, then applies
// PORTAL_BACKEND_URL, PORTAL_COMPANY and PORTAL_SESSION_SECRET overrides.
// A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read profile: %w", err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), p); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
	}

	p.BackendURL = getEnv("PORTAL_BACKEND_URL", p.BackendURL)
	p.Company = getEnv("PORTAL_COMPANY", p.Company)
	p.SessionSecret = getEnv("PORTAL_SESSION_SECRET", p.SessionSecret)

	if p.BackendURL == "" {
		p.BackendURL = "http://localhost:8000"
	}
	if p.SessionFile == "" {
		p.SessionFile = filepath.Join(filepath.Dir(DefaultProfilePath()), "session.json")
	}
	p.SessionFile = expandHome(p.SessionFile)
	if p.Timeout <= 0 {
		p.Timeout = 15 * time.Second
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 2
	}
	if p.LogLevel == "" {
		p.LogLevel = "warn"
	}
	return p, nil
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
