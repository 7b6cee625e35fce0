package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.GeminiModel != "gemini-2.5-pro" || cfg.GeminiFallbackModel != "gemini-2.5-flash" {
		t.Fatalf("gemini models = %q / %q", cfg.GeminiModel, cfg.GeminiFallbackModel)
	}
	if cfg.MaxTokens != 50000 || cfg.ThinkingBudget != 15000 {
		t.Fatalf("token budgets = %d / %d", cfg.MaxTokens, cfg.ThinkingBudget)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("Temperature = %v", cfg.Temperature)
	}
	if !cfg.UseGrounding || !cfg.UseThinking {
		t.Fatalf("grounding/thinking defaults = %v / %v", cfg.UseGrounding, cfg.UseThinking)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "GROQ")
	t.Setenv("MAX_TOKENS", "1234")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("USE_GROUNDING", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000, https://app.example.com")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.LLMProvider != "groq" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.MaxTokens != 1234 {
		t.Fatalf("MaxTokens = %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("Temperature = %v", cfg.Temperature)
	}
	if cfg.UseGrounding {
		t.Fatal("UseGrounding should be false")
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://app.example.com" {
		t.Fatalf("CORSAllowOrigin = %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_TOKENS", "not-a-number")
	t.Setenv("TEMPERATURE", "warm")

	cfg := Load()
	if cfg.MaxTokens != 50000 {
		t.Fatalf("MaxTokens = %d, want default", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("Temperature = %v, want default", cfg.Temperature)
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"groq":   "groq",
		" GROQ ": "groq",
		"gemini": "gemini",
		"other":  "gemini",
		"":       "gemini",
	}
	for in, want := range cases {
		if got := normalizeProvider(in); got != want {
			t.Fatalf("normalizeProvider(%q) = %q, want %q", in, got, want)
		}
	}
}
