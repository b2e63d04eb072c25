package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/rules"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults failed: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.Session.MaxOracleCalls != 15 {
		t.Errorf("expected budget 15, got %d", cfg.Session.MaxOracleCalls)
	}
	if cfg.Session.ReplayWindow != 5*time.Minute {
		t.Errorf("expected 5m replay window, got %v", cfg.Session.ReplayWindow)
	}
	if len(cfg.Credibility.HighDomains) != len(model.DefaultHighCredibilityDomains) {
		t.Errorf("expected %d high domains, got %d", len(model.DefaultHighCredibilityDomains), len(cfg.Credibility.HighDomains))
	}
}

func TestDecodeConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PROOFPILOT_ORACLE_PROVIDER", "openai")
	t.Setenv("PROOFPILOT_SESSION_MAX_ORACLE_CALLS", "3")
	t.Setenv("PROOFPILOT_SESSION_REPLAY_WINDOW", "90s")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	v := viper.New()
	v.SetEnvPrefix("PROOFPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.Oracle.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", cfg.Oracle.Provider)
	}
	if cfg.Session.MaxOracleCalls != 3 {
		t.Errorf("expected budget 3, got %d", cfg.Session.MaxOracleCalls)
	}
	if cfg.Session.ReplayWindow != 90*time.Second {
		t.Errorf("expected 90s window, got %v", cfg.Session.ReplayWindow)
	}
	if cfg.Oracle.APIKey != "sk-test" {
		t.Errorf("expected API key from OPENAI_API_KEY, got %q", cfg.Oracle.APIKey)
	}
}

func TestDecodeConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "oracle:\n  provider: ollama\n  model: llama3\ncache:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Oracle.Provider != "ollama" || cfg.Oracle.Model != "llama3" {
		t.Errorf("unexpected oracle config: %+v", cfg.Oracle)
	}
	if cfg.Cache.Enabled {
		t.Error("expected cache disabled by file")
	}
	if cfg.Concurrency.Workers != 4 {
		t.Errorf("expected default workers to survive, got %d", cfg.Concurrency.Workers)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"docs/report.txt", "docs_report"},
		{"https://example.com/a b?c=1", "example.com_a-b_c=1"},
		{"-", "input"},
		{"notes.md", "notes"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if got := sanitizeFilename(strings.Repeat("a", 150)); len(got) != 100 {
		t.Errorf("expected length 100, got %d", len(got))
	}
}

func TestPrintFixtures(t *testing.T) {
	var buf bytes.Buffer
	failed := printFixtures(&buf, rules.RunFixtures(rules.NewEngine()))

	if failed != 0 {
		t.Errorf("expected all fixtures to pass, got %d failures\n%s", failed, buf.String())
	}
	if !strings.Contains(buf.String(), "[PASS]") {
		t.Error("expected PASS lines")
	}

	buf.Reset()
	failed = printFixtures(&buf, []rules.FixtureOutcome{{Name: "broken", Passed: false, Details: "x"}})
	if failed != 1 || !strings.Contains(buf.String(), "[FAIL] broken") {
		t.Errorf("expected one FAIL line, got %q", buf.String())
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Session.MaxOracleCalls != 15 || cfg.Oracle.Provider != "offline" {
		t.Errorf("unexpected config contents: %+v", cfg)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestRedacted(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Oracle.APIKey = "sk-secret"

	out := redacted(cfg)
	if out.Oracle.APIKey == "sk-secret" {
		t.Error("expected API key to be redacted")
	}
	if cfg.Oracle.APIKey != "sk-secret" {
		t.Error("redacted must not modify the input")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(buf.String(), "proofpilot "+Version) {
		t.Errorf("unexpected version output %q", buf.String())
	}
}
