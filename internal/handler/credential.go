package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joaomferraz/KeyCript/internal/middleware"
	"github.com/joaomferraz/KeyCript/internal/model"
	"github.com/joaomferraz/KeyCript/internal/queue"
	"github.com/joaomferraz/KeyCript/internal/repository"
)

// CredentialStore is the slice of the credential repository the handlers
// need.  Every method takes the owner id; there is no way to reach a row
// without it.
type CredentialStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error)
	Create(ctx context.Context, ownerID, title, username, password, folder string) (model.Credential, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Credential, error)
	Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}

// EventPublisher emits vault activity events.  Publishing is best-effort:
// handlers log failures and carry on, a broker outage never fails a
// request.
type EventPublisher interface {
	PublishVaultActivity(ctx context.Context, event queue.VaultActivityEvent) error
}

// CredentialHandler serves the owner-scoped CRUD endpoints.  The owner
// identity always comes from the context populated by the JWT middleware,
// never from the payload.
type CredentialHandler struct {
	Creds  CredentialStore
	Events EventPublisher // optional; nil disables activity events
}

func NewCredentialHandler(creds CredentialStore, events EventPublisher) *CredentialHandler {
	return &CredentialHandler{Creds: creds, Events: events}
}

// ----- DTOs -----

type createCredentialReq struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	Folder   string `json:"folder"`
}

// updateCredentialReq distinguishes "field absent" (nil) from "field set
// to a value" so that PUT merges only what the client sent.  There is no
// owner field: ownership is immutable and a stray ownerId key in the body
// is simply ignored by the decoder.
type updateCredentialReq struct {
	Title    *string `json:"title"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Folder   *string `json:"folder"`
}

// List handles GET /credentials and returns every entry owned by the
// authenticated user.
func (h *CredentialHandler) List(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Creds.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list credentials"})
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /credentials.  Title, username and password are
// required; folder is an optional label.
func (h *CredentialHandler) Create(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req createCredentialReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Username = strings.TrimSpace(req.Username)
	if req.Title == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title, username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Creds.Create(ctx, ownerID, req.Title, req.Username, req.Password, strings.TrimSpace(req.Folder))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create credential"})
	}
	h.publish(c, ownerID, created.ID, "created", created.Title)
	return c.JSON(http.StatusCreated, created)
}

// Get handles GET /credentials/:id.  An entry that does not exist and an
// entry owned by someone else answer with the same 404.
func (h *CredentialHandler) Get(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cred, err := h.Creds.GetByIDAndOwner(ctx, c.Param("id"), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "credential not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load credential"})
	}
	return c.JSON(http.StatusOK, cred)
}

// Update handles PUT /credentials/:id with a partial body.  Fields left
// out of the payload keep their stored values.
func (h *CredentialHandler) Update(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req updateCredentialReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	patch := model.CredentialPatch{
		Title:    req.Title,
		Username: req.Username,
		Password: req.Password,
		Folder:   req.Folder,
	}
	if patch.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "no fields to update"})
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title cannot be empty"})
	}
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username cannot be empty"})
	}
	if patch.Password != nil && *patch.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Creds.Update(ctx, c.Param("id"), ownerID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "credential not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update credential"})
	}
	h.publish(c, ownerID, updated.ID, "updated", updated.Title)
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /credentials/:id.  Deletion is permanent.
func (h *CredentialHandler) Delete(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.Creds.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "credential not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not delete credential"})
	}
	h.publish(c, ownerID, id, "deleted", "")
	return c.NoContent(http.StatusNoContent)
}

// publish emits an activity event when a publisher is configured.  The
// event carries the entry title but never the stored secret.
func (h *CredentialHandler) publish(c echo.Context, ownerID, credentialID, action, title string) {
	if h.Events == nil {
		return
	}
	event := queue.VaultActivityEvent{
		UserID:       ownerID,
		CredentialID: credentialID,
		Action:       action,
		Title:        title,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Events.PublishVaultActivity(c.Request().Context(), event); err != nil {
		log.Printf("vault-activity: publish failed: %v", err)
	}
}
