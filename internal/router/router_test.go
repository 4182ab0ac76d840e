package router_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joaomferraz/KeyCript/internal/config"
	"github.com/joaomferraz/KeyCript/internal/handler"
	"github.com/joaomferraz/KeyCript/internal/model"
	"github.com/joaomferraz/KeyCript/internal/repository"
	"github.com/joaomferraz/KeyCript/internal/router"
	"github.com/joaomferraz/KeyCript/internal/utils"
)

// In-memory stores shared by the scenario test.  They play the role of the
// database behind the real repositories.

type memUsers struct {
	byName map[string]model.User
	next   int
}

func (m *memUsers) Create(_ context.Context, username, password string, cost int) (model.User, error) {
	if _, ok := m.byName[username]; ok {
		return model.User{}, repository.ErrUserExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	m.next++
	u := model.User{ID: fmt.Sprintf("user-%d", m.next), Username: username, PasswordHash: hash}
	m.byName[username] = u
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type memCreds struct {
	byID map[string]model.Credential
	next int
}

func (m *memCreds) Create(_ context.Context, ownerID, title, username, password, folder string) (model.Credential, error) {
	m.next++
	now := time.Now().UTC()
	c := model.Credential{
		ID: fmt.Sprintf("cred-%d", m.next), OwnerID: ownerID,
		Title: title, Username: username, Password: password, Folder: folder,
		CreatedAt: now, UpdatedAt: now,
	}
	m.byID[c.ID] = c
	return c, nil
}

func (m *memCreds) ListByOwner(_ context.Context, ownerID string) ([]model.Credential, error) {
	out := []model.Credential{}
	for _, c := range m.byID {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCreds) GetByIDAndOwner(_ context.Context, id, ownerID string) (model.Credential, error) {
	c, ok := m.byID[id]
	if !ok || c.OwnerID != ownerID {
		return model.Credential{}, repository.ErrCredentialNotFound
	}
	return c, nil
}

func (m *memCreds) Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error) {
	c, err := m.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return model.Credential{}, err
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Username != nil {
		c.Username = *patch.Username
	}
	if patch.Password != nil {
		c.Password = *patch.Password
	}
	if patch.Folder != nil {
		c.Folder = *patch.Folder
	}
	m.byID[id] = c
	return c, nil
}

func (m *memCreds) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	if _, err := m.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

const secret = "router-test-secret"

func newServer() *echo.Echo {
	cfg := config.Config{JWTSecret: secret, AccessTTL: 24 * time.Hour, BcryptCost: 4}
	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, &memUsers{byName: map[string]model.User{}}))
	router.RegisterCredentials(e, handler.NewCredentialHandler(&memCreds{byID: map[string]model.Credential{}}, nil), secret)
	return e
}

// request performs one HTTP call against the assembled router.
func request(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func field(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	v, _ := body[key].(string)
	return v
}

// TestVaultScenario walks the full account-and-vault lifecycle through the
// real routing table and middleware.
func TestVaultScenario(t *testing.T) {
	e := newServer()

	// register alice -> 201, duplicate -> 409
	if rec := request(e, http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register = %d, want 201", rec.Code)
	}
	if rec := request(e, http.MethodPost, "/auth/register", `{"username":"alice","password":"other"}`, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", rec.Code)
	}

	// wrong password -> 401, right password -> token
	if rec := request(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", rec.Code)
	}
	rec := request(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200", rec.Code)
	}
	aliceToken := field(t, rec, "token")
	if aliceToken == "" {
		t.Fatal("login returned no token")
	}

	// a second account for the concealment checks
	request(e, http.MethodPost, "/auth/register", `{"username":"mallory","password":"secret2"}`, "")
	rec = request(e, http.MethodPost, "/auth/login", `{"username":"mallory","password":"secret2"}`, "")
	malloryToken := field(t, rec, "token")

	// credentials are gated
	if rec := request(e, http.MethodGet, "/credentials", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list = %d, want 401", rec.Code)
	}

	// create with alice's token
	rec = request(e, http.MethodPost, "/credentials", `{"title":"GitHub","username":"alice","password":"p1"}`, aliceToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, want 201", rec.Code)
	}
	id := field(t, rec, "id")
	if id == "" {
		t.Fatal("create returned no id")
	}

	// owner reads it back; mallory gets 404
	if rec := request(e, http.MethodGet, "/credentials/"+id, "", aliceToken); rec.Code != http.StatusOK {
		t.Errorf("owner get = %d, want 200", rec.Code)
	}
	if rec := request(e, http.MethodGet, "/credentials/"+id, "", malloryToken); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d, want 404", rec.Code)
	}

	// delete, then the owner's own read misses too
	if rec := request(e, http.MethodDelete, "/credentials/"+id, "", aliceToken); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", rec.Code)
	}
	if rec := request(e, http.MethodGet, "/credentials/"+id, "", aliceToken); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestHealthAndWelcome(t *testing.T) {
	e := newServer()
	if rec := request(e, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
	if rec := request(e, http.MethodGet, "/", "", ""); rec.Code != http.StatusOK {
		t.Errorf("welcome = %d, want 200", rec.Code)
	}
}
