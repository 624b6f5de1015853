package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"financemanager/internal/config"
	"financemanager/internal/models"
)

func testUser() *models.User {
	user := &models.User{Email: "saver@example.com"}
	user.ID = 42
	return user
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID), "email": c.GetString(ContextEmail)})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	access, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("failed to sign access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(testUser())
	if err != nil {
		t.Fatalf("failed to sign refresh token: %v", err)
	}

	expiredClaims := &JWTClaims{
		UserID:    42,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(getJWTKey())
	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: 42, TokenType: tokenTypeAccess}).
		SignedString([]byte("some-other-secret"))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid_access_token", header: "Bearer " + access, wantStatus: http.StatusOK},
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic " + access, wantStatus: http.StatusUnauthorized},
		{name: "refresh_token_rejected", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
		{name: "expired_token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "foreign_signature", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "garbage_token", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(setupAuthRouter(), tt.header)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			body := parseBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				if id, _ := body["user_id"].(float64); id != 42 {
					t.Errorf("expected user_id 42 in context, got %v", body["user_id"])
				}
				return
			}
			errObj, ok := body["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected error object in response")
			}
			if code, _ := errObj["code"].(string); code != "UNAUTHORIZED" {
				t.Errorf("error code = %q, want UNAUTHORIZED", code)
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	t.Run("refresh_token", func(t *testing.T) {
		token, err := GenerateRefreshToken(testUser())
		if err != nil {
			t.Fatalf("failed to sign refresh token: %v", err)
		}

		claims, err := ValidateRefreshToken(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.UserID != 42 || claims.Email != "saver@example.com" {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("access_token_rejected", func(t *testing.T) {
		token, err := GenerateAccessToken(testUser())
		if err != nil {
			t.Fatalf("failed to sign access token: %v", err)
		}

		if _, err := ValidateRefreshToken(token); err == nil {
			t.Error("expected an access token to be rejected")
		}
	})
}

func TestGenerateAccessTokenExpiry(t *testing.T) {
	token, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("failed to sign access token: %v", err)
	}

	claims, err := parseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != config.Get().JWTExpirationDur {
		t.Errorf("expected ttl %s, got %s", config.Get().JWTExpirationDur, ttl)
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	if len(a) != 64 {
		t.Errorf("expected a 64 character hex digest, got %d", len(a))
	}
	if a != HashToken("token-a") {
		t.Error("expected a stable digest")
	}
	if a == HashToken("token-b") {
		t.Error("expected different tokens to hash differently")
	}
}
