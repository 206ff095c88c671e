package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"accounts/internal/cache"
	"accounts/internal/credentials"
	"accounts/internal/database"
	"accounts/internal/handlers"
	"accounts/internal/middleware"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/services"
	"accounts/internal/session"
	"accounts/internal/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type testApp struct {
	app   *fiber.App
	bus   *cache.LocalBus
	store *cache.MemoryStore
}

// setupApp builds the full stack over an in-memory SQLite database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)

	store := cache.NewMemoryStore()
	bus := cache.NewLocalBus()
	bus.Subscribe(cache.NewInvalidator(store).Handle)

	service := services.NewAccountService(
		userRepo,
		addressRepo,
		credentials.NewBcrypt(bcrypt.MinCost),
		session.NewManager(userRepo, tokens.Opaque{}),
		bus,
	)
	_, err = service.SeedAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(service)
	handlers.NewUserHandler(service, cache.NewViewCache[models.UserWithAddresses](store, 0)).RegisterRoutes(apiV1, auth)
	handlers.NewAddressHandler(service, cache.NewViewCache[[]models.Address](store, 0)).RegisterRoutes(apiV1, auth)

	bus.Wait()
	return &testApp{app: app, bus: bus, store: store}
}

// do sends a JSON request and decodes the response body into out when out
// is not nil. It waits for pending invalidations so reads observe them.
func (a *testApp) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	a.bus.Wait()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type authResponse struct {
	ID      string           `json:"id"`
	Email   string           `json:"email"`
	Role    string           `json:"role"`
	APIKeys []models.Session `json:"apiKeys"`
}

func (r authResponse) token() string {
	if len(r.APIKeys) == 0 {
		return ""
	}
	return r.APIKeys[0].Token
}

func (a *testApp) register(t *testing.T, email, password string) authResponse {
	t.Helper()
	var out authResponse
	status := a.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": email, "firstName": "Test", "lastName": "User", "password": password,
	}, &out)
	require.Equal(t, http.StatusCreated, status)
	return out
}

func (a *testApp) login(t *testing.T, email, password string) authResponse {
	t.Helper()
	var out authResponse
	status := a.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": email, "password": password,
	}, &out)
	require.Equal(t, http.StatusOK, status)
	return out
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRegisterAndLogin(t *testing.T) {
	a := setupApp(t)

	created := a.register(t, "x.y+test@d.com", "p")
	assert.Equal(t, "xy@d.com", created.Email)
	assert.Equal(t, "USER", created.Role)
	require.NotEmpty(t, created.token())
	assert.Equal(t, services.DefaultDeviceID, created.APIKeys[0].DeviceID)

	var conflict handlers.ErrorResponse
	status := a.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "xy@d.com", "firstName": "A", "lastName": "B", "password": "q",
	}, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.EqualValues(t, "CONFLICT", conflict.Code)

	logged := a.login(t, "xy@d.com", "p")
	assert.Equal(t, created.ID, logged.ID)
	assert.NotEqual(t, created.token(), logged.token())

	var wrong handlers.ErrorResponse
	status = a.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "xy@d.com", "password": "nope",
	}, &wrong)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.EqualValues(t, "INVALID_CREDENTIALS", wrong.Code)

	// The session issued at creation was replaced by the login.
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/users/me", created.token(), nil, nil))
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users/me", logged.token(), nil, nil))
}

func TestValidationErrorResponse(t *testing.T) {
	a := setupApp(t)

	var out handlers.ErrorResponse
	status := a.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{"email": "nope"}, &out)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.EqualValues(t, "VALIDATION_ERROR", out.Code)
	assert.NotEmpty(t, out.Errors)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	a := setupApp(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/users/logout"},
		{http.MethodGet, "/api/v1/users/some-id"},
		{http.MethodGet, "/api/v1/users/some-id/address"},
		{http.MethodDelete, "/api/v1/users/some-id/address/other-id"},
	}
	for _, p := range paths {
		assert.Equal(t, http.StatusUnauthorized, a.do(t, p.method, p.path, "", nil, nil), p.path)
		assert.Equal(t, http.StatusUnauthorized, a.do(t, p.method, p.path, "bogus", nil, nil), p.path)
	}
}

func TestAccessControl(t *testing.T) {
	a := setupApp(t)
	alice := a.register(t, "alice@d.com", "p")
	bob := a.register(t, "bob@d.com", "p")
	admin := a.login(t, adminEmail, adminPassword)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/v1/users", alice.token(), nil, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/v1/users/"+bob.ID, alice.token(), nil, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, "/api/v1/users/"+bob.ID, alice.token(), nil, nil))

	var list []models.UserWithAddresses
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users?pageNumber=1&pageSize=10", admin.token(), nil, &list))
	assert.Len(t, list, 3)

	// A non-admin cannot promote themselves; the role field is dropped.
	var updated models.User
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/users/"+alice.ID, alice.token(),
		map[string]any{"role": "ADMIN", "firstName": "Alice"}, &updated))
	assert.Equal(t, models.RoleUser, updated.Role)
	assert.Equal(t, "Alice", updated.FirstName)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/users/"+alice.ID, admin.token(),
		map[string]any{"role": "ADMIN"}, &updated))
	assert.Equal(t, models.RoleAdmin, updated.Role)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, "/api/v1/users/"+alice.ID, admin.token(),
		map[string]any{"role": "ROOT"}, nil))
}

func TestGetUserViewIsInvalidatedOnUpdate(t *testing.T) {
	a := setupApp(t)
	u := a.register(t, "a@d.com", "p")

	var view models.UserWithAddresses
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users/"+u.ID, u.token(), nil, &view))
	assert.Equal(t, "Test", view.FirstName)
	assert.Contains(t, a.store.Keys(), cache.Key(cache.CollectionUsers, "get", u.ID, u.ID))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/users/"+u.ID, u.token(),
		map[string]string{"firstName": "Changed"}, nil))
	assert.Empty(t, a.store.Keys())

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users/"+u.ID, u.token(), nil, &view))
	assert.Equal(t, "Changed", view.FirstName)
}

func TestAddressLifecycle(t *testing.T) {
	a := setupApp(t)
	u := a.register(t, "a@d.com", "p")
	token := u.token()
	base := "/api/v1/users/" + u.ID + "/address"

	// Prime the list cache so the create must invalidate it.
	var list []models.Address
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, base, token, nil, &list))
	assert.Empty(t, list)

	var populated models.UserWithAddresses
	status := a.do(t, http.MethodPost, base, token, map[string]any{
		"zip_code": 1000, "country": "PT", "city": "Lisbon", "street": "Rua Augusta", "number": 12,
	}, &populated)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, populated.Addresses, 1)
	addrID := populated.Addresses[0].ID
	assert.Equal(t, u.ID, populated.Addresses[0].OwnerID)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, base, token, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, addrID, list[0].ID)

	var one models.Address
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, base+"/"+addrID, token, nil, &one))
	assert.Equal(t, "Lisbon", one.City)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, base+"/"+addrID, token, map[string]any{"city": "Porto"}, &one))
	assert.Equal(t, "Porto", one.City)
	assert.Equal(t, "Rua Augusta", one.Street)

	var me models.UserWithAddresses
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users/me", token, nil, &me))
	require.Len(t, me.Addresses, 1)
	assert.Equal(t, "Porto", me.Addresses[0].City)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, base+"/"+addrID, token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, base+"/"+addrID, token, nil, nil))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, base, token, nil, &list))
	assert.Empty(t, list)
}

func TestForgedAddressPathIsDenied(t *testing.T) {
	a := setupApp(t)
	owner := a.register(t, "owner@d.com", "p")
	intruder := a.register(t, "intruder@d.com", "p")

	var populated models.UserWithAddresses
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/users/"+owner.ID+"/address", owner.token(), map[string]any{
		"zip_code": 1000, "country": "PT", "city": "Lisbon", "street": "Rua", "number": 1,
	}, &populated))
	addrID := populated.Addresses[0].ID

	forged := "/api/v1/users/" + intruder.ID + "/address/" + addrID
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, forged, intruder.token(), map[string]any{"city": "X"}, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, forged, intruder.token(), nil, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, forged, owner.token(), map[string]any{"city": "X"}, nil))

	var one models.Address
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/users/"+owner.ID+"/address/"+addrID, owner.token(), nil, &one))
	assert.Equal(t, "Lisbon", one.City)
	assert.Equal(t, owner.ID, one.OwnerID)
}

func TestRemoveUserCascades(t *testing.T) {
	a := setupApp(t)
	u := a.register(t, "x.y+test@d.com", "p")
	admin := a.login(t, adminEmail, adminPassword)
	base := "/api/v1/users/" + u.ID + "/address"

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, base, u.token(), map[string]any{
		"zip_code": 1000, "country": "PT", "city": "Lisbon", "street": "Rua", "number": 1,
	}, nil))

	// Cache the admin's view of the list before the user goes away.
	var list []models.Address
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, base, admin.token(), nil, &list))
	require.Len(t, list, 1)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/v1/users/"+u.ID, u.token(), nil, nil))

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, base, admin.token(), nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/api/v1/users/"+u.ID, admin.token(), nil, nil))
}

func TestLogout(t *testing.T) {
	a := setupApp(t)
	u := a.register(t, "a@d.com", "p")

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/users/logout", u.token(), nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/users/me", u.token(), nil, nil))
}
