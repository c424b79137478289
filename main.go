package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/private-chat-demo/modules/api"
	"github.com/example/private-chat-demo/modules/auth"
	"github.com/example/private-chat-demo/modules/chat"
	"github.com/example/private-chat-demo/modules/presence"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Private Chat - Fiber + EventBus + GORM/SQLite ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	chatModule := chat.NewModule()
	presenceModule := presence.NewModule()
	apiModule := api.NewModule()

	// Inject the connection registry into the API module
	// (done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(presenceModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: principal resolver + user directory (ServiceProviderModule)
	// - chat: store + delivery pipeline (ServiceProviderModule + EventEmitterModule)
	// - presence: connection registry + MessageSent consumer (EventConsumerModule)
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(authModule)
	app.Register(chatModule)
	app.Register(presenceModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Storage: GORM + SQLite (users, conversations, messages)")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("")
	log.Println("Message flow:")
	log.Println("  - POST send -> durable record -> MessageSent event -> receiver's socket")
	log.Println("  - connect/disconnect -> presence-set broadcast to all sockets")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                  - Health check")
	log.Println("  POST   /api/auth/register       - Create account")
	log.Println("  POST   /api/auth/login          - Login")
	log.Println("  GET    /api/auth/all            - List other users (Bearer token)")
	log.Println("  POST   /api/message/send/:id    - Send message to user (Bearer token)")
	log.Println("  GET    /api/message/:id         - Message history with user (Bearer token)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:8080/ws?token=<access_token>")
	log.Println("  Outbound events: new-message, presence-set")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
