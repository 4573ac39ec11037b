package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"multimodal-chat-backend/internal/cache"
	"multimodal-chat-backend/internal/config"
	"multimodal-chat-backend/internal/handler"
	"multimodal-chat-backend/internal/metrics"
	"multimodal-chat-backend/internal/middleware"
	"multimodal-chat-backend/internal/service"
	"multimodal-chat-backend/internal/web"

	_ "multimodal-chat-backend/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Multimodal Chat API
// @version 1.0.0
// @description Backend that forwards text and image chat requests to an OpenAI-compatible API.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.Default()
	chatService := service.NewChatService(
		logger,
		openai.NewClient(
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithBaseURL(cfg.OpenAI.BaseURL),
		), cfg.OpenAI)

	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(cfg.RedisConfig)
		defer redisCache.Close()
		chatService.SetCacheClient(redisCache)
		logger.Println("set redis as cache")
	}

	h := handler.NewChatHandler(chatService)

	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		chimiddleware.Logger,
		chimiddleware.Recoverer,
		chimiddleware.Throttle(cfg.Server.ThrottleLimit),
		chimiddleware.Timeout(cfg.Server.Timeout),
		middleware.CORS(cfg.Server.AllowedOrigin),
		metrics.Middleware,
	}...)

	r.Get("/", web.Index)
	r.Handle("/static/*", web.Static())

	r.Get("/api", h.Info)
	r.Get("/health", h.Health)
	r.Get("/presets", h.Presets)
	r.Post("/chat/text", h.TextChat)
	r.Post("/chat/text/stream", h.TextChatStream)
	r.Post("/chat/image-base64", h.ImageBase64)
	r.Post("/chat/image-upload", h.ImageUpload)
	r.Post("/chat/multimodal", h.Multimodal)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Printf("server started :%s\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Println("server stopped")
}
