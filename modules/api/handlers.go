package api

import (
	"log"
	"strings"

	userdomain "github.com/example/private-chat-demo/domain/user"
	"github.com/example/private-chat-demo/modules/auth"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// Auth
	authGroup := m.app.Group("/api/auth")
	authGroup.Post("/register", m.register)
	authGroup.Post("/login", m.login)
	authGroup.Get("/all", AuthMiddleware(m.authAdapter), m.listUsers)

	// Messaging
	messageGroup := m.app.Group("/api/message", AuthMiddleware(m.authAdapter))
	messageGroup.Post("/send/:id", m.sendMessage)
	messageGroup.Get("/:id", m.getHistory)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// register handles POST /api/auth/register.
func (m *APIModule) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.authAdapter.Register(c.UserContext(), auth.RegisterRequest{
		Fullname: req.Fullname,
		Username: req.Username,
		Password: req.Password,
		Gender:   req.Gender,
	})
	if err != nil {
		return m.mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		User:        resp.User,
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		TokenType:   resp.TokenType,
	})
}

// login handles POST /api/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.authAdapter.Login(c.UserContext(), auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return m.mapServiceError(c, err)
	}

	return c.JSON(AuthResponse{
		User:        resp.User,
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		TokenType:   resp.TokenType,
	})
}

// listUsers handles GET /api/auth/all.
func (m *APIModule) listUsers(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*userdomain.Claims)

	users, err := m.authAdapter.ListOtherUsers(c.UserContext(), claims.UserID)
	if err != nil {
		return m.mapServiceError(c, err)
	}

	return c.JSON(UserListResponse{Users: users})
}

// sendMessage handles POST /api/message/send/:id. The path parameter is
// the receiver; the sender is the authenticated principal.
func (m *APIModule) sendMessage(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*userdomain.Claims)
	receiverID := c.Params("id")

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	msg, err := m.chatAdapter.SendMessage(c.UserContext(), claims.UserID, receiverID, req.Message)
	if err != nil {
		return m.mapServiceError(c, err)
	}

	return c.JSON(SendMessageResponse{Message: *msg})
}

// getHistory handles GET /api/message/:id. The path parameter is the
// other participant; an empty list means the pair has no conversation yet.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*userdomain.Claims)
	otherID := c.Params("id")

	messages, err := m.chatAdapter.GetHistory(c.UserContext(), claims.UserID, otherID)
	if err != nil {
		return m.mapServiceError(c, err)
	}

	return c.JSON(HistoryResponse{Messages: messages})
}

// mapServiceError translates errors carried back over the bus into HTTP
// responses. Error strings are matched because typed errors do not survive
// request-reply serialization.
func (m *APIModule) mapServiceError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "message content cannot be empty"),
		strings.Contains(errStr, "message content exceeds"),
		strings.Contains(errStr, "message content is not valid"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: errMessage(errStr),
		})
	case strings.Contains(errStr, "invalid username or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username or password",
		})
	case strings.Contains(errStr, "username already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Username already exists",
		})
	case strings.Contains(errStr, "username must be"),
		strings.Contains(errStr, "full name is required"),
		strings.Contains(errStr, "password must be"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: errMessage(errStr),
		})
	case strings.Contains(errStr, "user not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	default:
		// Log the actual error but don't expose it to the client
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// errMessage strips wrapping prefixes so clients see only the last cause.
func errMessage(errStr string) string {
	if idx := strings.LastIndex(errStr, ": "); idx >= 0 {
		errStr = errStr[idx+2:]
	}
	if errStr == "" {
		return errStr
	}
	return strings.ToUpper(errStr[:1]) + errStr[1:]
}
