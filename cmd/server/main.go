// main.go
//
// An AI-assisted project board service for the jam-build platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-board.
// jam-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/jam-board/internal/ai"
	"github.com/localnerve/jam-board/internal/board"
	"github.com/localnerve/jam-board/internal/config"
	"github.com/localnerve/jam-board/internal/database"
	"github.com/localnerve/jam-board/internal/handlers"
	"github.com/localnerve/jam-board/internal/middleware"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/types"

	_ "github.com/localnerve/jam-board/docs/api" // Swagger docs
)

// @title Jam Board API
// @version 1.0.0
// @description Go Fiber project board service with an AI collaborator and versioned board writes
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/jam-board
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// AI gateway
	completer := &ai.Client{
		APIKey:      cfg.OpenRouterAPIKey,
		URL:         cfg.OpenRouterURL,
		Model:       cfg.OpenRouterModel,
		TextTimeout: time.Duration(cfg.AITextTimeoutSec) * time.Second,
		ChatTimeout: time.Duration(cfg.AIChatTimeoutSec) * time.Second,
	}

	topology := board.Topology(cfg.BoardTopology)

	chatService := &services.ChatService{
		DB:           db,
		AI:           completer,
		Topology:     topology,
		HistoryLimit: cfg.ChatHistoryLimit,
		MaxMessages:  cfg.ChatMaxMessages,
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Api-Version",
		}))
	}

	// Prometheus metrics
	prometheus := fiberprometheus.New("jamboard")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health probe, outside the /api group and the auth wall
	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	authHandler := &handlers.AuthHandler{DB: db, Cfg: cfg}
	boardHandler := &handlers.BoardHandler{DB: db, Topology: topology}
	chatHandler := &handlers.ChatHandler{DB: db, Chat: chatService}
	legacyHandler := &handlers.LegacyHandler{
		DB:       db,
		Topology: topology,
		Boards:   boardHandler,
		Chat:     chatHandler,
	}

	// Public auth routes
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Everything else requires a bearer token
	api.Use(middleware.AuthUser(cfg.JWTSecret))

	// Board routes
	api.Get("/boards", boardHandler.ListBoards)
	api.Post("/boards", boardHandler.CreateBoard)
	api.Get("/boards/:boardId", boardHandler.GetBoard)
	api.Put("/boards/:boardId", boardHandler.PutBoard)
	api.Delete("/boards/:boardId", boardHandler.DeleteBoard)

	// Chat routes
	api.Get("/boards/:boardId/chat", chatHandler.ListMessages)
	api.Post("/boards/:boardId/chat", chatHandler.Converse)
	api.Post("/ai/check", chatHandler.CheckAssistant)

	// Legacy single-board routes
	api.Get("/board", legacyHandler.GetBoard)
	api.Put("/board", legacyHandler.PutBoard)
	api.Get("/chat", legacyHandler.ListMessages)
	api.Post("/chat", legacyHandler.Converse)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Check for middleware errors
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || strings.Contains(message, "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
