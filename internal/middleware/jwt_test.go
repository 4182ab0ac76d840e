package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joaomferraz/KeyCript/internal/utils"
)

const testSecret = "middleware-test-secret"

// runProtected sends a request with the given Authorization header through
// JWTAuth and a probe handler that echoes the bound identity.
func runProtected(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/credentials", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			t.Fatal("handler reached without a bound identity")
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": id})
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestJWTAuth_ValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, "user-42", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec := runProtected(t, "Bearer "+at.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["user_id"] != "user-42" {
		t.Errorf("user_id = %q, want user-42", body["user_id"])
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	expired, err := utils.NewAccessToken(testSecret, "user-42", -time.Minute)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	foreign, err := utils.NewAccessToken("other-secret", "user-42", time.Hour)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired.Token},
		{"wrong secret", "Bearer " + foreign.Token},
	}
	var firstBody string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runProtected(t, tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			// Every failure kind must produce the identical body.
			if firstBody == "" {
				firstBody = rec.Body.String()
			} else if rec.Body.String() != firstBody {
				t.Errorf("body %q differs from %q; failures must be uniform", rec.Body.String(), firstBody)
			}
		})
	}
}

func TestUserID_Unset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := UserID(c); ok {
		t.Error("UserID reported an identity on a bare context")
	}
}
