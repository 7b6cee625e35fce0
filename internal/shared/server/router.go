package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-backend/internal/llm"
	"paper-backend/internal/llm/gemini"
	"paper-backend/internal/llm/groq"
	"paper-backend/internal/papers"
	"paper-backend/internal/shared/config"
	"paper-backend/internal/shared/server/middleware"
)

// NewRouter builds the gin engine with all routes and the analysis stack
// wired behind them.
func NewRouter(cfg config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	svc, err := buildService(cfg)
	if err != nil {
		return nil, err
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Research Paper Analysis API",
			"docs":    "/api/health",
		})
	})

	api := engine.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	papers.NewHandler(svc).RegisterRoutes(api)

	return engine, nil
}

func buildService(cfg config.Config) (*papers.Service, error) {
	client, primary, fallback, err := buildLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	invoker := llm.Invoker{
		Client:        client,
		Model:         primary,
		FallbackModel: fallback,
		MaxTokens:     cfg.MaxTokens,
	}

	registry := papers.NewRegistry()
	analyzer := papers.NewAnalyzer(invoker, cfg.UploadDir)
	chats := papers.NewChatManager(invoker)
	graphs := papers.NewGraphExtractor(invoker)
	return papers.NewService(registry, analyzer, chats, graphs), nil
}

func buildLLMClient(cfg config.Config) (llm.Client, string, string, error) {
	switch cfg.LLMProvider {
	case "groq":
		client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Temperature)
		if err != nil {
			return nil, "", "", fmt.Errorf("configure groq client: %w", err)
		}
		return client, cfg.GroqModel, cfg.GroqFallbackModel, nil
	case "gemini":
		client, err := gemini.NewClient(context.Background(), gemini.Options{
			APIKey:         cfg.GeminiAPIKey,
			Temperature:    cfg.Temperature,
			ThinkingBudget: cfg.ThinkingBudget,
			UseGrounding:   cfg.UseGrounding,
			UseThinking:    cfg.UseThinking,
		})
		if err != nil {
			return nil, "", "", fmt.Errorf("configure gemini client: %w", err)
		}
		return client, cfg.GeminiModel, cfg.GeminiFallbackModel, nil
	default:
		return nil, "", "", fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Addr returns a normalized listen address for the given port.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
