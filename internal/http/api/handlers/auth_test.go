package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/notifyhub/slackbridge/internal/config"
	"github.com/notifyhub/slackbridge/internal/security"
)

func newAuthRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	h := NewAuthHandler(db, config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterThenLogin(t *testing.T) {
	r := newAuthRouter(setupDB(t))

	w := postJSON(r, "/auth/register", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/auth/login", `{"username":"alice","password":"s3cret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if body.Username != "alice" || body.Token == "" {
		t.Fatalf("unexpected login body: %s", w.Body.String())
	}

	claims, errParse := security.ParseToken("test-secret", body.Token)
	if errParse != nil {
		t.Fatalf("issued token does not parse: %v", errParse)
	}
	if claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newAuthRouter(setupDB(t))

	if w := postJSON(r, "/auth/register", `{"username":"alice","email":"a@example.com","password":"x1"}`); w.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", w.Code)
	}
	if w := postJSON(r, "/auth/register", `{"username":"alice","email":"b@example.com","password":"x2"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", w.Code)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	r := newAuthRouter(setupDB(t))

	cases := []string{
		`{"email":"a@example.com","password":"x"}`,
		`{"username":"a","password":"x"}`,
		`{"username":"a","email":"a@example.com"}`,
		`not json`,
	}
	for _, body := range cases {
		if w := postJSON(r, "/auth/register", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := newAuthRouter(setupDB(t))

	if w := postJSON(r, "/auth/register", `{"username":"alice","email":"a@example.com","password":"right"}`); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", w.Code)
	}
	if w := postJSON(r, "/auth/login", `{"username":"alice","password":"wrong"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := postJSON(r, "/auth/login", `{"username":"nobody","password":"x"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", w.Code)
	}
}
