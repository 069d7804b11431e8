package main

import (
	"log"
	"os"

	"curvecontrol/internal/engine"
	"curvecontrol/internal/handlers"
	"curvecontrol/internal/routes"
	"curvecontrol/pkg/config"
)

func main() {
	// Initialize database
	config.InitDB()
	config.ExecuteMigrations()

	// Initialize RabbitMQ (optional, will log warning if not configured)
	var publisher *config.Publisher
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()

		var err error
		publisher, err = config.NewPublisher()
		if err != nil {
			log.Fatal("Create publisher failed:", err)
		}
		defer publisher.Close()
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, fee distribution and events will not be queued")
	}

	// Wire the trade engine
	var eng *engine.Engine
	if publisher != nil {
		eng = engine.New(config.DB, publisher)
	} else {
		eng = engine.New(config.DB, nil)
	}
	handlers.InitEngine(eng)

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
