package handlers

import (
	"accounts/internal/cache"
	"accounts/internal/middleware"
	"accounts/internal/models"
	"accounts/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the address sub-resource.
type AddressHandler struct {
	service *services.AccountService
	views   *cache.ViewCache[[]models.Address]
}

// NewAddressHandler creates a new AddressHandler. views may be nil.
func NewAddressHandler(service *services.AccountService, views *cache.ViewCache[[]models.Address]) *AddressHandler {
	return &AddressHandler{service: service, views: views}
}

// RegisterRoutes registers the address routes under /users/:userId/address.
func (h *AddressHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	addressRoutes := router.Group("/users/:userId/address")
	addressRoutes.Post("/", auth, h.HandleCreate)
	addressRoutes.Get("/", auth, h.HandleList)
	addressRoutes.Get("/:id", auth, h.HandleGet)
	addressRoutes.Put("/:id", auth, h.HandleUpdate)
	addressRoutes.Delete("/:id", auth, h.HandleDelete)
}

// HandleCreate adds an address to the user and returns the updated user.
func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	user, err := h.service.AddAddress(c.UserContext(), middleware.ActorFrom(c), c.Params("userId"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleList returns the user's addresses.
func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := middleware.ActorFrom(c)
	userID := c.Params("userId")

	key := cache.Key(cache.CollectionAddresses, "list", actor.ID, userID)
	if cached, ok := h.views.Get(ctx, key); ok {
		return c.JSON(*cached)
	}
	list, err := h.service.GetAddresses(ctx, actor, userID)
	if err != nil {
		return err
	}
	h.views.Set(ctx, key, &list)
	return c.JSON(list)
}

// HandleGet returns a single address.
func (h *AddressHandler) HandleGet(c *fiber.Ctx) error {
	address, err := h.service.GetAddress(c.UserContext(), middleware.ActorFrom(c), c.Params("userId"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(address)
}

// HandleUpdate applies a partial update, or moves the address when the
// path names a different owner.
func (h *AddressHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateAddressInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	address, err := h.service.UpdateAddress(c.UserContext(), middleware.ActorFrom(c), c.Params("userId"), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(address)
}

// HandleDelete removes an address.
func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.RemoveAddress(c.UserContext(), middleware.ActorFrom(c), c.Params("userId"), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Address (" + id + ") deleted"})
}
