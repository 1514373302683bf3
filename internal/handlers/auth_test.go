package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/services"
	"github.com/tripora/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newAuthTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")
	utils.SetJWTIssuer("tripora-test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.RefreshCredential{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := &config.AuthConfig{
		SigningKey:          "handler-test-secret",
		AccessTokenMinutes:  5,
		RefreshLifetimeDays: 14,
		Issuer:              "tripora-test",
	}
	credentials := services.NewCredentialService(db, nil, cfg)
	tokens := services.NewTokenIssuer(services.NewDBRoleLookup(db), cfg)
	authService := services.NewAuthService(db, tokens, credentials)
	h := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/refresh", h.Refresh)
	r.POST("/api/auth/revoke", h.Revoke)
	return r, db
}

func seedHandlerUser(t *testing.T, db *gorm.DB) {
	t.Helper()
	hashed, err := utils.HashPassword("travel far")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Username: "ada", Password: hashed, Roles: "traveler", IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func loginSecret(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := postJSON(t, r, "/api/auth/login", gin.H{"username": "ada", "password": "travel far"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Tokens struct {
				RefreshSecret string `json:"refresh_secret"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.Tokens.RefreshSecret == "" {
		t.Fatal("login returned no refresh secret")
	}
	return resp.Data.Tokens.RefreshSecret
}

func TestLoginEndpoint(t *testing.T) {
	r, db := newAuthTestServer(t)
	seedHandlerUser(t, db)

	if w := postJSON(t, r, "/api/auth/login", gin.H{"username": "ada", "password": "travel far"}); w.Code != http.StatusOK {
		t.Errorf("valid login status = %d, expected 200", w.Code)
	}
	if w := postJSON(t, r, "/api/auth/login", gin.H{"username": "ada", "password": "nope"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, expected 401", w.Code)
	}
	if w := postJSON(t, r, "/api/auth/login", gin.H{"username": "ada"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing field status = %d, expected 400", w.Code)
	}
}

func TestRefreshEndpoint_RotatesThenRejectsReplay(t *testing.T) {
	r, db := newAuthTestServer(t)
	seedHandlerUser(t, db)
	secret := loginSecret(t, r)

	w := postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_secret": secret})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			AccessToken   string `json:"access_token"`
			RefreshSecret string `json:"refresh_secret"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if resp.Data.AccessToken == "" || resp.Data.RefreshSecret == "" {
		t.Fatalf("refresh response incomplete: %s", w.Body.String())
	}
	if resp.Data.RefreshSecret == secret {
		t.Error("refresh did not rotate the secret")
	}

	// Replaying the consumed secret must look exactly like any other invalid
	// credential from the outside.
	if w := postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_secret": secret}); w.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, expected 401", w.Code)
	}
	// And the cascade killed the rotated successor too.
	if w := postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_secret": resp.Data.RefreshSecret}); w.Code != http.StatusUnauthorized {
		t.Errorf("post-cascade refresh status = %d, expected 401", w.Code)
	}
}

func TestRefreshEndpoint_UnknownSecret(t *testing.T) {
	r, db := newAuthTestServer(t)
	seedHandlerUser(t, db)

	if w := postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_secret": "never-issued"}); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown secret status = %d, expected 401", w.Code)
	}
	if w := postJSON(t, r, "/api/auth/refresh", gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing secret status = %d, expected 400", w.Code)
	}
}

func TestRevokeEndpoint_Always204(t *testing.T) {
	r, db := newAuthTestServer(t)
	seedHandlerUser(t, db)
	secret := loginSecret(t, r)

	for _, body := range []gin.H{
		{"refresh_secret": secret},
		{"refresh_secret": secret}, // repeat revocation
		{"refresh_secret": "never-issued"},
		{},
	} {
		if w := postJSON(t, r, "/api/auth/revoke", body); w.Code != http.StatusNoContent {
			t.Errorf("revoke %v status = %d, expected 204", body, w.Code)
		}
	}

	// Revoked credentials cannot refresh any more.
	if w := postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_secret": secret}); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after revoke status = %d, expected 401", w.Code)
	}
}
