// Package configstore persists fly-in-docker defaults in an XDG-compliant
// location. Global defaults apply everywhere; per-project sections keyed by
// absolute workspace path layer on top. Command-line flags always win over
// anything persisted here.
package configstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	configFileName = "config.toml"
	appDirName     = "fly-in-docker"

	// DefaultWorkspaceTarget is where the workspace directory mounts inside
	// the container unless overridden.
	DefaultWorkspaceTarget = "/root/ws/workspace"
)

// Config is the persisted configuration after defaults are applied.
type Config struct {
	UseAlibabaACR   bool
	ARM             bool
	WorkspaceTarget string
	Projects        map[string]Project
}

// Project holds per-workspace overrides keyed by the workspace's absolute
// path.
type Project struct {
	CustomModels  []string `toml:"custom_models,omitempty"`
	UseAlibabaACR *bool    `toml:"use_alibaba_acr,omitempty"`
	ARM           *bool    `toml:"arm,omitempty"`
}

// New returns a Config with built-in defaults and initialized maps.
func New() Config {
	return Config{
		WorkspaceTarget: DefaultWorkspaceTarget,
		Projects:        make(map[string]Project),
	}
}

// ProjectFor resolves the effective settings for a workspace directory:
// project scope wins over global scope, which wins over built-ins.
func (c Config) ProjectFor(dir string) (useACR, arm bool, customModels []string) {
	useACR = c.UseAlibabaACR
	arm = c.ARM
	abs, err := filepath.Abs(dir)
	if err != nil {
		return useACR, arm, nil
	}
	proj, ok := c.Projects[filepath.Clean(abs)]
	if !ok {
		return useACR, arm, nil
	}
	if proj.UseAlibabaACR != nil {
		useACR = *proj.UseAlibabaACR
	}
	if proj.ARM != nil {
		arm = *proj.ARM
	}
	return useACR, arm, append([]string(nil), proj.CustomModels...)
}

// ParseError represents a TOML decode failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// GetConfigPath resolves the configuration directory and file path using XDG
// rules with a fallback to ~/.config/fly-in-docker/config.toml. The
// FLY_IN_DOCKER_HOME environment variable overrides the base directory.
func GetConfigPath() (string, string, error) {
	if override := strings.TrimSpace(os.Getenv("FLY_IN_DOCKER_HOME")); override != "" {
		dir := filepath.Clean(override)
		if !filepath.IsAbs(dir) {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return "", "", fmt.Errorf("resolve FLY_IN_DOCKER_HOME %q: %w", override, err)
			}
			dir = abs
		}
		return dir, filepath.Join(dir, configFileName), nil
	}

	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		dir := filepath.Join(base, appDirName)
		return dir, filepath.Join(dir, configFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		if err == nil {
			err = fmt.Errorf("home directory not found")
		}
		return "", "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", appDirName)
	return dir, filepath.Join(dir, configFileName), nil
}

type persistedDefaults struct {
	UseAlibabaACR   *bool  `toml:"use_alibaba_acr,omitempty"`
	ARM             *bool  `toml:"arm,omitempty"`
	WorkspaceTarget string `toml:"workspace_target,omitempty"`
}

type persistedConfig struct {
	Defaults persistedDefaults  `toml:"defaults,omitempty"`
	Projects map[string]Project `toml:"projects,omitempty"`
}

// Load reads the persisted config from disk. A missing file yields built-in
// defaults.
func Load() (Config, error) {
	cfg := New()
	_, file, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw persistedConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, &ParseError{Path: file, Err: err}
	}

	if raw.Defaults.UseAlibabaACR != nil {
		cfg.UseAlibabaACR = *raw.Defaults.UseAlibabaACR
	}
	if raw.Defaults.ARM != nil {
		cfg.ARM = *raw.Defaults.ARM
	}
	if target := strings.TrimSpace(raw.Defaults.WorkspaceTarget); target != "" {
		cfg.WorkspaceTarget = target
	}
	for key, proj := range raw.Projects {
		cfg.Projects[filepath.Clean(key)] = proj
	}
	return cfg, nil
}

// Save atomically writes the configuration to disk.
func Save(cfg Config) error {
	dir, file, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleaned := false
	defer func() {
		if !cleaned {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	out := buildPersisted(cfg)
	if err := toml.NewEncoder(tmp).Encode(out); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}

	if err := os.Rename(tmpName, file); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}
	cleaned = true
	return nil
}

func buildPersisted(cfg Config) persistedConfig {
	out := persistedConfig{}
	if cfg.UseAlibabaACR {
		v := true
		out.Defaults.UseAlibabaACR = &v
	}
	if cfg.ARM {
		v := true
		out.Defaults.ARM = &v
	}
	if target := strings.TrimSpace(cfg.WorkspaceTarget); target != "" && target != DefaultWorkspaceTarget {
		out.Defaults.WorkspaceTarget = target
	}
	if len(cfg.Projects) > 0 {
		projects := make(map[string]Project, len(cfg.Projects))
		for key, proj := range cfg.Projects {
			if len(proj.CustomModels) == 0 && proj.UseAlibabaACR == nil && proj.ARM == nil {
				continue
			}
			projects[filepath.Clean(key)] = proj
		}
		if len(projects) > 0 {
			out.Projects = projects
		}
	}
	return out
}
