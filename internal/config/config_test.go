package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

func noEnv(string) string { return "" }

func TestDefaultModels(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(noEnv)
	if got := cfg.ModelFor(ProviderOpenAI); got != DefaultOpenAIModel {
		t.Errorf("ModelFor(openai) = %v, want %v", got, DefaultOpenAIModel)
	}
	if got := cfg.ModelFor(ProviderXAI); got != DefaultXAIModel {
		t.Errorf("ModelFor(xai) = %v, want %v", got, DefaultXAIModel)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantOpenAI string
		wantXAI    string
	}{
		{"openai only", map[string]string{"OPENAI_MODEL": "gpt-5"}, "gpt-5", DefaultXAIModel},
		{"xai only", map[string]string{"XAI_MODEL": "grok-5"}, DefaultOpenAIModel, "grok-5"},
		{"both", map[string]string{"OPENAI_MODEL": "gpt-5", "XAI_MODEL": "grok-5"}, "gpt-5", "grok-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(func(k string) string { return tt.env[k] })
			if cfg.Models.OpenAI != tt.wantOpenAI {
				t.Errorf("OpenAI = %v, want %v", cfg.Models.OpenAI, tt.wantOpenAI)
			}
			if cfg.Models.XAI != tt.wantXAI {
				t.Errorf("XAI = %v, want %v", cfg.Models.XAI, tt.wantXAI)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("XAI_MODEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
models:
  openai: gpt-4.1
x402:
  endpoints:
    openai: http://localhost:8080/web_search
  timeouts:
    quick: 30
  max_price_atomic: 50000
discovery:
  depths:
    deep:
      min_items: 5
      max_items: 10
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Models.OpenAI != "gpt-4.1" {
		t.Errorf("Models.OpenAI = %v, want gpt-4.1", cfg.Models.OpenAI)
	}
	if cfg.Models.XAI != DefaultXAIModel {
		t.Errorf("Models.XAI = %v, want %v", cfg.Models.XAI, DefaultXAIModel)
	}
	if got := cfg.X402.Endpoints[ProviderOpenAI]; got != "http://localhost:8080/web_search" {
		t.Errorf("openai endpoint = %v", got)
	}
	if _, ok := cfg.X402.Endpoints[ProviderXAI]; ok {
		t.Error("xai endpoint should not be configured by default")
	}
	if cfg.X402.MaxPriceAtomic != 50000 {
		t.Errorf("MaxPriceAtomic = %v, want 50000", cfg.X402.MaxPriceAtomic)
	}
	if cfg.Discovery.Domain != DefaultDomain || cfg.Discovery.Provider != ProviderOpenAI {
		t.Errorf("Discovery = %+v", cfg.Discovery)
	}

	timeouts := cfg.DepthTimeouts()
	if timeouts.Lookup(model.DepthQuick) != 30*time.Second {
		t.Errorf("quick timeout = %v, want 30s", timeouts.Lookup(model.DepthQuick))
	}
	if timeouts.Lookup(model.DepthDeep) != 180*time.Second {
		t.Errorf("deep timeout = %v, want 180s", timeouts.Lookup(model.DepthDeep))
	}

	profiles := cfg.DepthProfiles()
	if p := profiles.Lookup(model.DepthDeep); p.MinItems != 5 || p.MaxItems != 10 {
		t.Errorf("deep profile = %+v", p)
	}
	if p := profiles.Lookup(model.DepthQuick); p.MinItems != 15 || p.MaxItems != 25 {
		t.Errorf("quick profile = %+v", p)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-5")
	t.Setenv("XAI_MODEL", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Models.OpenAI != "gpt-5" {
		t.Errorf("Models.OpenAI = %v, want gpt-5", cfg.Models.OpenAI)
	}
	if cfg.X402.Endpoints[ProviderOpenAI] != DefaultOpenAIProxy {
		t.Errorf("openai endpoint = %v", cfg.X402.Endpoints[ProviderOpenAI])
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() error = nil, want error")
	}
}
