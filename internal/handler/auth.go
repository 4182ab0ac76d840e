package handler

import (
	"context"      // context with cancellation for DB calls
	"database/sql" // sentinel errors like sql.ErrNoRows
	"errors"       // errors.Is for sentinel comparison
	"net/http"     // HTTP status codes
	"strings"      // input trimming
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/joaomferraz/KeyCript/internal/config"
	"github.com/joaomferraz/KeyCript/internal/model"
	"github.com/joaomferraz/KeyCript/internal/repository"
	"github.com/joaomferraz/KeyCript/internal/utils"
)

// UserStore is the slice of the user repository the auth handlers need.
// The concrete *repository.UserRepo satisfies it; tests plug in fakes.
type UserStore interface {
	Create(ctx context.Context, username, password string, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// AuthHandler bundles dependencies for the register and login endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a user.  No token is issued here; the client logs in
// afterwards.  Registering an already-taken username is a 409 regardless
// of the password sent.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Username, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create user"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "user created"})
}

// Login verifies the credentials and returns a signed access token whose
// subject is the user's id.  An unknown username and a wrong password
// produce byte-identical responses so the endpoint cannot be used to
// enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	subject := u.ID
	if subject == "" {
		subject = u.Username
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subject, h.Cfg.AccessTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": access.Token})
}
