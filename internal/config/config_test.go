package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/adsbib/internal/journal"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/adsbib/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "adsbib", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.ADSToken != "" || cfg.ADSBaseURL != "" || cfg.LTWAPath != "" {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "ads_token: secret\nads_base_url: http://localhost:9999/v1\nltwa_path: ~/ltwa.yml\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.ADSToken != "secret" {
		t.Errorf("ADSToken = %q", cfg.ADSToken)
	}
	if cfg.ADSBaseURL != "http://localhost:9999/v1" {
		t.Errorf("ADSBaseURL = %q", cfg.ADSBaseURL)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if want := filepath.Join(home, "ltwa.yml"); cfg.LTWAPath != want {
			t.Errorf("LTWAPath = %q, want %q", cfg.LTWAPath, want)
		}
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "ads_token: [unclosed\n")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() expected error for malformed YAML")
	}
}

func TestLoadGlobalConfig_Cached(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "ads_token: first\n")

	if _, err := LoadGlobalConfig(); err != nil {
		t.Fatal(err)
	}
	writeGlobalConfig(t, "ads_token: second\n")
	cfg, _ := LoadGlobalConfig()
	if cfg.ADSToken != "first" {
		t.Errorf("ADSToken = %q, want cached value", cfg.ADSToken)
	}
}

func TestLookupToken(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "ads_token: from-config\n")

	t.Setenv(TokenEnvVar, " from-env ")
	if got := LookupToken(); got != "from-env" {
		t.Errorf("LookupToken() = %q, want from-env", got)
	}

	t.Setenv(TokenEnvVar, "")
	if got := LookupToken(); got != "from-config" {
		t.Errorf("LookupToken() = %q, want from-config", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"~/x", filepath.Join(home, "x")},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadProfile_Missing(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), ProfileFile))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p != DefaultProfile() {
		t.Errorf("LoadProfile() = %+v, want defaults", p)
	}
}

func TestLoadProfile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProfileFile)
	content := `collection: abcLIB
additional_file: extra.bib
journal: iso4
interval: 1m30s
iterations: 0
add_as_is: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Collection != "abcLIB" || p.AdditionalFile != "extra.bib" || !p.AddAsIs {
		t.Errorf("LoadProfile() = %+v", p)
	}
	if time.Duration(p.Interval) != 90*time.Second {
		t.Errorf("Interval = %v, want 1m30s", time.Duration(p.Interval))
	}
	if p.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", p.Iterations)
	}
	// Unset fields keep their defaults.
	if p.Output != DefaultOutput || p.Sort != DefaultSort || p.InfoInterval != DefaultInfoInterval {
		t.Errorf("defaults lost: %+v", p)
	}
}

func TestLoadProfile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProfileFile)
	if err := os.WriteFile(path, []byte("interval: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("LoadProfile() error = %v, want ErrInvalid", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"interval: 5s", 5 * time.Second},
		{"interval: 0.5", 500 * time.Millisecond},
		{"interval: 2", 2 * time.Second},
		{"interval: 250ms", 250 * time.Millisecond},
	}
	for _, tt := range tests {
		var v struct {
			Interval Duration `yaml:"interval"`
		}
		if err := yaml.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Errorf("Unmarshal(%q) error = %v", tt.in, err)
			continue
		}
		if time.Duration(v.Interval) != tt.want {
			t.Errorf("Unmarshal(%q) = %v, want %v", tt.in, time.Duration(v.Interval), tt.want)
		}
	}
}

func TestProfile_Validate(t *testing.T) {
	valid := DefaultProfile()
	valid.Collection = "abcLIB"

	conv, err := valid.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if conv != journal.Native {
		t.Errorf("Validate() convention = %q, want native", conv)
	}

	tests := []struct {
		name   string
		modify func(*Profile)
	}{
		{"no collection", func(p *Profile) { p.Collection = "" }},
		{"bad source", func(p *Profile) { p.Source = "orcid" }},
		{"bad journal", func(p *Profile) { p.Journal = "klingon" }},
		{"empty format", func(p *Profile) { p.Format = " " }},
		{"empty output", func(p *Profile) { p.Output = "" }},
		{"raw equals output", func(p *Profile) { p.RawFile = p.Output }},
		{"zero interval", func(p *Profile) { p.Interval = 0 }},
		{"negative iterations", func(p *Profile) { p.Iterations = -1 }},
		{"negative info interval", func(p *Profile) { p.InfoInterval = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			if _, err := p.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}
