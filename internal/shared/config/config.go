package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	UploadDir       string

	LLMProvider string

	GeminiAPIKey        string
	GeminiModel         string
	GeminiFallbackModel string

	GroqAPIKey        string
	GroqModel         string
	GroqFallbackModel string

	MaxTokens      int
	Temperature    float64
	ThinkingBudget int
	UseGrounding   bool
	UseThinking    bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of a local env file for dev convenience.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		UploadDir:       getEnv("UPLOAD_DIR", ""),

		LLMProvider: normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),

		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		GeminiFallbackModel: getEnv("GEMINI_FALLBACK_MODEL", "gemini-2.5-flash"),

		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         getEnv("GROQ_MODEL", "deepseek-r1-distill-llama-70b"),
		GroqFallbackModel: getEnv("GROQ_FALLBACK_MODEL", "qwen-2.5-32b"),

		MaxTokens:      getEnvInt("MAX_TOKENS", 50000),
		Temperature:    getEnvFloat("TEMPERATURE", 0.2),
		ThinkingBudget: getEnvInt("THINKING_BUDGET", 15000),
		UseGrounding:   getEnvBool("USE_GROUNDING", true),
		UseThinking:    getEnvBool("USE_THINKING", true),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return def
	}
	return raw == "true" || raw == "1" || raw == "yes"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "groq":
		return "groq"
	default:
		return "gemini"
	}
}
