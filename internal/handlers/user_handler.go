package handlers

import (
	"accounts/internal/cache"
	"accounts/internal/middleware"
	"accounts/internal/models"
	"accounts/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	service *services.AccountService
	views   *cache.ViewCache[models.UserWithAddresses]
}

// NewUserHandler creates a new UserHandler. views may be nil to disable the
// read cache.
func NewUserHandler(service *services.AccountService, views *cache.ViewCache[models.UserWithAddresses]) *UserHandler {
	return &UserHandler{service: service, views: views}
}

// RegisterRoutes registers the account routes. auth guards every route
// except creation and login.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleCreate)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Post("/logout", auth, h.HandleLogout)
	userRoutes.Get("/", auth, h.HandleList)
	userRoutes.Get("/me", auth, h.HandleMe)
	userRoutes.Get("/:id", auth, h.HandleGet)
	userRoutes.Put("/:id", auth, h.HandleUpdate)
	userRoutes.Delete("/:id", auth, h.HandleDelete)
}

// CreateUserRequest is the body of the account creation request.
type CreateUserRequest struct {
	models.CreateUserInput
	DeviceID string `json:"deviceId"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

// HandleCreate registers a new account and returns it with its session.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	user, err := h.service.Create(c.UserContext(), req.CreateUserInput, req.DeviceID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleLogin checks credentials and issues a new session.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	user, err := h.service.Login(c.UserContext(), req.Email, req.Password, req.DeviceID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleLogout revokes the caller's session.
func (h *UserHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), middleware.ActorFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// HandleList returns every account. Admin only.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), middleware.ActorFrom(c), c.QueryInt("pageNumber", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// HandleMe returns the caller's own account.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.service.Me(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleGet returns a single account, served from the view cache when
// possible. Entries are keyed per caller so a cached view is only ever
// returned to an actor that was already authorized to see it.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.ActorFrom(c)
	id := c.Params("id")

	key := cache.Key(cache.CollectionUsers, "get", actor.ID, id)
	if cached, ok := h.views.Get(ctx, key); ok {
		return c.JSON(cached)
	}
	user, err := h.service.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	h.views.Set(ctx, key, user)
	return c.JSON(user)
}

// HandleUpdate applies a partial update to an account.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	user, err := h.service.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleDelete removes an account and its addresses.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Remove(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User (" + id + ") deleted"})
}
