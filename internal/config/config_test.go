package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "INFO" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "INFO")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.Tree.Depth != 2 || cfg.Tree.Fanout != 2 {
		t.Errorf("Tree = %+v, want depth 2 fanout 2", cfg.Tree)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want %+v", cfg, Default())
	}
}

func TestInit_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groupptr.yaml")
	data := "log:\n  level: debug\n  format: json\ntree:\n  depth: 3\n  fanout: 4\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := Init(v, path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Tree.Depth != 3 || cfg.Tree.Fanout != 4 {
		t.Errorf("Tree = %+v", cfg.Tree)
	}
}

func TestInit_MissingFile(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestInit_Env(t *testing.T) {
	t.Setenv("GROUPPTR_TREE_FANOUT", "5")

	v := viper.New()
	if err := Init(v, ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tree.Fanout != 5 {
		t.Errorf("Tree.Fanout = %d, want 5", cfg.Tree.Fanout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative depth", func(c *Config) { c.Tree.Depth = -1 }, "tree.depth"},
		{"deep tree", func(c *Config) { c.Tree.Depth = MaxTreeDepth + 1 }, "tree.depth"},
		{"zero fanout", func(c *Config) { c.Tree.Fanout = 0 }, "tree.fanout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.HasPrefix(err.Error(), tt.field) {
				t.Errorf("error %q should name %s", err, tt.field)
			}
		})
	}
}
