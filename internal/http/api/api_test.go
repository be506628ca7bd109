package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/notifyhub/slackbridge/internal/config"
	"github.com/notifyhub/slackbridge/internal/ingest"
	"github.com/notifyhub/slackbridge/internal/models"
	"github.com/notifyhub/slackbridge/internal/slackapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopClient struct{}

func (noopClient) ExchangeOAuthCode(context.Context, string, string, string, string) (*slackapi.OAuthGrant, error) {
	return nil, fmt.Errorf("not implemented")
}

func (noopClient) UserIdentity(context.Context, string, string) (*slackapi.UserProfile, error) {
	return nil, fmt.Errorf("not implemented")
}

func (noopClient) PostMessage(context.Context, string, string, string, string) (string, string, error) {
	return "", "", fmt.Errorf("not implemented")
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.SlackInstallation{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	cfg := &config.Config{}
	cfg.JWT.Secret = "api-test-secret"
	cfg.JWT.ExpiryHours = 1
	cfg.Slack.ClientID = "cid"
	cfg.Slack.ClientSecret = "secret"
	cfg.Slack.RedirectURI = "https://host.example.com/slack/oauth_redirect"

	queue := ingest.NewQueue(ingest.LoggingSink{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		queue.Wait()
	})

	r := gin.New()
	RegisterRoutes(r, db, cfg, noopClient{}, queue, ingest.NewDeduper(time.Minute))
	return r
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slack/workspaces", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/slack/workspaces", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/slack/workspaces", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: expected 401, got %d", w.Code)
	}
}

func TestRegisterLoginAndListWorkspaces(t *testing.T) {
	r := setupRouter(t)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	if w := post("/auth/register", `{"username":"alice","email":"alice@example.com","password":"pw"}`); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w := post("/auth/login", `{"username":"alice","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &login); errDecode != nil || login.Token == "" {
		t.Fatalf("no token in login response: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/slack/workspaces", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty workspace list, got %s", w.Body.String())
	}
}

func TestPublicSlackCallbackSkipsAuth(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/messages",
		strings.NewReader(`{"type":"url_verification","challenge":"xyz"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"challenge":"xyz"`) {
		t.Fatalf("challenge not echoed: %s", w.Body.String())
	}
}
