package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultTarget != "html" {
		t.Errorf("DefaultTarget = %q, want %q", cfg.DefaultTarget, "html")
	}
	if len(cfg.Directives) != len(DefaultDirectives()) {
		t.Errorf("Directives = %d entries, want %d", len(cfg.Directives), len(DefaultDirectives()))
	}
	if cfg.Directives["neutre"].Title != "required" {
		t.Errorf("neutre title = %q, want %q", cfg.Directives["neutre"].Title, "required")
	}
	if !cfg.Directives["secret"].Details {
		t.Error("secret Details = false, want true")
	}
}

func TestLoad_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"),
		`{"default_target": "latex", "directives": {"warning": {"title": "forbidden", "class": "warn"}}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultTarget != "latex" {
		t.Errorf("DefaultTarget = %q, want %q", cfg.DefaultTarget, "latex")
	}
	if cfg.Directives["warning"].Class != "warn" {
		t.Errorf("warning class = %q, want %q", cfg.Directives["warning"].Class, "warn")
	}
	if _, ok := cfg.Directives["secret"]; !ok {
		t.Error("default directive secret missing after merge")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.toml"), `
server_port = 9000
replace_directives = true

[directives.note]
title = "required"
class = "note boxed"
details = true

[latex_environments]
note = "NoteBox"
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("ServerPort = %d, want 9000", cfg.ServerPort)
	}
	if len(cfg.Directives) != 1 {
		t.Fatalf("Directives = %v, want only note", cfg.Directives)
	}
	note := cfg.Directives["note"]
	if note.Title != "required" || note.Class != "note boxed" || !note.Details {
		t.Errorf("note = %+v", note)
	}
	if cfg.LatexEnvironments["note"] != "NoteBox" {
		t.Errorf("LatexEnvironments[note] = %q, want %q", cfg.LatexEnvironments["note"], "NoteBox")
	}
}

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), `
cache_disabled: true
disabled_tools:
  - zmd_cache_purge
directives:
  aside:
    title: optional
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.CacheDisabled {
		t.Error("CacheDisabled = false, want true")
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "zmd_cache_purge" {
		t.Errorf("DisabledTools = %v, want [zmd_cache_purge]", cfg.DisabledTools)
	}
	if cfg.Directives["aside"].Title != "optional" {
		t.Errorf("aside title = %q, want %q", cfg.Directives["aside"].Title, "optional")
	}
}

func TestLoad_JSONTakesPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"server_port": 1111}`)
	writeFile(t, filepath.Join(tmpDir, "config.toml"), `server_port = 2222`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 1111 {
		t.Errorf("ServerPort = %d, want 1111", cfg.ServerPort)
	}
}

func TestLoad_InvalidFiles(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"config.json", `{not json}`},
		{"config.toml", `server_port = `},
		{"config.yaml", "directives: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, tt.file), tt.content)
			if _, err := Load(tmpDir); err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
		})
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeFile(t, filepath.Join(globalDir, "config.json"),
		`{"server_port": 8000, "disabled_tools": ["zmd_cache_purge"]}`)
	writeFile(t, filepath.Join(repoRoot, RepoDir, "config.json"),
		`{"server_port": 5000, "disabled_tools": ["zmd_parse"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.ServerPort != 5000 {
		t.Errorf("ServerPort = %d, want 5000 (repo override)", cfg.ServerPort)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ServerPort != DefaultConfig().ServerPort {
		t.Errorf("ServerPort = %d, want default %d", cfg.ServerPort, DefaultConfig().ServerPort)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	repoRoot := t.TempDir()
	writeFile(t, filepath.Join(repoRoot, RepoDir, "config.yaml"), "default_target: epub\n")

	deep := filepath.Join(repoRoot, "docs", "chapters")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), deep)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.DefaultTarget != "epub" {
		t.Errorf("DefaultTarget = %q, want %q", cfg.DefaultTarget, "epub")
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig() = %q, want empty", got)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{DefaultTarget: "html", ServerPort: 1, DBMaxOpenConns: 4}
	overlay := &Config{DefaultTarget: "latex"}

	got := Merge(base, overlay)
	if got.DefaultTarget != "latex" {
		t.Errorf("DefaultTarget = %q, want %q", got.DefaultTarget, "latex")
	}
	if got.ServerPort != 1 || got.DBMaxOpenConns != 4 {
		t.Errorf("base scalars lost: port=%d conns=%d", got.ServerPort, got.DBMaxOpenConns)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	got := Merge(&Config{CacheDisabled: true}, &Config{})
	if !got.CacheDisabled {
		t.Error("CacheDisabled = false, want true")
	}
}

func TestMerge_Directives(t *testing.T) {
	base := &Config{Directives: map[string]Directive{
		"secret": {Title: "optional"},
		"neutre": {Title: "required"},
	}}

	extended := Merge(base, &Config{Directives: map[string]Directive{
		"secret": {Title: "forbidden"},
		"note":   {Title: "optional"},
	}})
	if len(extended.Directives) != 3 {
		t.Errorf("extended Directives = %v, want 3 entries", extended.Directives)
	}
	if extended.Directives["secret"].Title != "forbidden" {
		t.Errorf("secret title = %q, want overlay value", extended.Directives["secret"].Title)
	}

	replaced := Merge(base, &Config{
		ReplaceDirectives: true,
		Directives:        map[string]Directive{"note": {}},
	})
	if len(replaced.Directives) != 1 {
		t.Errorf("replaced Directives = %v, want only note", replaced.Directives)
	}

	// Merging must not alias the inputs.
	extended.Directives["extra"] = Directive{}
	if _, ok := base.Directives["extra"]; ok {
		t.Error("Merge result aliases base map")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	got := Merge(
		&Config{DisabledTools: []string{"a", " b "}},
		&Config{DisabledTools: []string{"b", "c", ""}},
	)
	want := []string{"a", "b", "c"}
	if len(got.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", got.DisabledTools, want)
	}
	for i := range want {
		if got.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, got.DisabledTools[i], want[i])
		}
	}
}
