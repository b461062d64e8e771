package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames lists the config file names tried in a config directory, in
// order. The first one that exists wins.
var FileNames = []string{"config.json", "config.toml", "config.yaml", "config.yml"}

// RepoDir is the per-repository config directory name.
const RepoDir = ".zmd"

// Directive is the configured form of a directive definition.
type Directive struct {
	// Title is the title policy: "forbidden" (or empty), "optional" or "required".
	Title string `json:"title,omitempty" toml:"title" yaml:"title,omitempty"`

	// Class is a space-separated list of extra classes for the outer element.
	Class string `json:"class,omitempty" toml:"class" yaml:"class,omitempty"`

	// Details renders the directive as a collapsible details/summary pair.
	Details bool `json:"details,omitempty" toml:"details" yaml:"details,omitempty"`
}

// Config holds application configuration.
type Config struct {
	// Directives maps directive names to their definitions.
	Directives map[string]Directive `json:"directives,omitempty" toml:"directives" yaml:"directives,omitempty"`

	// ReplaceDirectives makes this file's directives replace, rather than
	// extend, the ones from lower-precedence configs.
	ReplaceDirectives bool `json:"replace_directives,omitempty" toml:"replace_directives" yaml:"replace_directives,omitempty"`

	// LatexEnvironments overrides the LaTeX environment used per directive name.
	LatexEnvironments map[string]string `json:"latex_environments,omitempty" toml:"latex_environments" yaml:"latex_environments,omitempty"`

	// DefaultTarget is the output target when a request names none.
	DefaultTarget string `json:"default_target,omitempty" toml:"default_target" yaml:"default_target,omitempty"`

	// MaxDocumentChars is the maximum character count of an input document.
	MaxDocumentChars int `json:"max_document_chars,omitempty" toml:"max_document_chars" yaml:"max_document_chars,omitempty"`

	// CacheDisabled turns off the render cache.
	CacheDisabled bool `json:"cache_disabled,omitempty" toml:"cache_disabled" yaml:"cache_disabled,omitempty"`

	// CacheMaxAgeDays is the age after which `cache purge` drops entries.
	CacheMaxAgeDays int `json:"cache_max_age_days,omitempty" toml:"cache_max_age_days" yaml:"cache_max_age_days,omitempty"`

	// ServerBind and ServerPort are the HTTP listen address for `zmd serve`.
	ServerBind string `json:"server_bind,omitempty" toml:"server_bind" yaml:"server_bind,omitempty"`
	ServerPort int    `json:"server_port,omitempty" toml:"server_port" yaml:"server_port,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" toml:"db_max_open_conns" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" toml:"db_max_idle_conns" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools" yaml:"disabled_tools,omitempty"`
}

// DefaultDirectives returns the stock directive set.
func DefaultDirectives() map[string]Directive {
	secret := Directive{Title: "optional", Class: "spoiler", Details: true}
	information := Directive{Title: "optional", Class: "information ico-after"}
	question := Directive{Title: "optional", Class: "question ico-after"}
	attention := Directive{Title: "optional", Class: "warning ico-after"}
	erreur := Directive{Title: "optional", Class: "error ico-after"}
	neutre := Directive{Title: "required", Class: "neutral"}
	return map[string]Directive{
		"secret": secret, "s": secret,
		"information": information, "i": information,
		"question": question, "q": question,
		"attention": attention, "a": attention,
		"erreur": erreur, "e": erreur,
		"neutre": neutre, "n": neutre,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Directives:       DefaultDirectives(),
		DefaultTarget:    "html",
		MaxDocumentChars: 1_000_000,
		CacheMaxAgeDays:  30,
		ServerBind:       "127.0.0.1",
		ServerPort:       27272,
	}
}

// Load loads configuration from the first config file found in baseDir.
// Returns default config if none exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.zmd.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(FindConfigFile(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both the global (~/.zmd) and the repo
// (.zmd) directories. The repo config is the nearest .zmd/config.* found by
// walking upward from startDir and takes precedence over the global one.
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(FindConfigFile(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindRepoConfig walks upward from startDir to find the nearest .zmd config
// file. Returns "" if none is found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		if path := FindConfigFile(filepath.Join(dir, RepoDir)); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw decodes the config file at path according to its extension.
// Returns zero-valued config (not defaults) if path is empty or missing.
func loadFileRaw(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; maps merge per key; arrays are
// merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	if overlay.ReplaceDirectives && len(overlay.Directives) > 0 {
		result.Directives = mergeMap(nil, overlay.Directives)
	} else {
		result.Directives = mergeMap(base.Directives, overlay.Directives)
	}
	result.ReplaceDirectives = overlay.ReplaceDirectives
	result.LatexEnvironments = mergeMap(base.LatexEnvironments, overlay.LatexEnvironments)

	// Scalars: overlay wins if non-zero, else base
	result.DefaultTarget = pick(overlay.DefaultTarget, base.DefaultTarget)
	result.MaxDocumentChars = pick(overlay.MaxDocumentChars, base.MaxDocumentChars)
	result.CacheMaxAgeDays = pick(overlay.CacheMaxAgeDays, base.CacheMaxAgeDays)
	result.ServerBind = pick(overlay.ServerBind, base.ServerBind)
	result.ServerPort = pick(overlay.ServerPort, base.ServerPort)
	result.DBMaxOpenConns = pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.CacheDisabled = base.CacheDisabled || overlay.CacheDisabled

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

func mergeMap[V any](base, overlay map[string]V) map[string]V {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]V, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
