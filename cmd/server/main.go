package main // Entry point package

import (
	"log"      // Logging library
	"net/http" // HTTP method names for the CORS allow list

	"github.com/joho/godotenv" // Optional .env loading for local development
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware" // Echo's built-in middleware (CORS, logging, recovery)

	"github.com/joaomferraz/KeyCript/internal/config"
	"github.com/joaomferraz/KeyCript/internal/database"
	"github.com/joaomferraz/KeyCript/internal/handler"
	"github.com/joaomferraz/KeyCript/internal/middleware"
	"github.com/joaomferraz/KeyCript/internal/queue"
	"github.com/joaomferraz/KeyCript/internal/repository"
	"github.com/joaomferraz/KeyCript/internal/router"
	"github.com/joaomferraz/KeyCript/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	creds := repository.NewCredentialRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users)
	credHandler := handler.NewCredentialHandler(creds, service.NewVaultEventPublisher())

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.FrontOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		MaxAge:       86400,
	}))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler)

	// The response cache degrades to a no-op when Redis is unreachable.
	cache := middleware.NewVaultCache(config.LoadCacheConfig(), config.NewRedisClient())
	router.RegisterCredentials(e, credHandler, cfg.JWTSecret, cache)

	// Activity trail consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartVaultActivityConsumer(); err != nil {
			log.Printf("vault-activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
