package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-for-middleware"

func newAuthTestServer() (*Server, *fiber.App) {
	s := &Server{
		config: &config.Config{JWTSecret: testJWTSecret},
	}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	return s, app
}

func signTestToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":      "7",
		"username": "casey",
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(time.Hour).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
}

func TestAuthRequired(t *testing.T) {
	_, app := newAuthTestServer()

	tests := []struct {
		name           string
		setupRequest   func(t *testing.T, req *http.Request)
		expectedStatus int
	}{
		{
			name: "valid bearer token",
			setupRequest: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, validClaims(), testJWTSecret))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "valid token in query param",
			setupRequest: func(t *testing.T, req *http.Request) {
				q := req.URL.Query()
				q.Set("token", signTestToken(t, validClaims(), testJWTSecret))
				req.URL.RawQuery = q.Encode()
				// app.Test serializes the request from RequestURI, which
				// httptest.NewRequest froze before the query was added.
				req.RequestURI = req.URL.RequestURI()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing token",
			setupRequest:   func(t *testing.T, req *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "malformed authorization header",
			setupRequest: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "NotBearer tokenhere")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				claims["exp"] = time.Now().Add(-time.Hour).Unix()
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong signing secret",
			setupRequest: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, validClaims(), "some-other-secret"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong issuer",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				claims["iss"] = "somebody-else"
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "missing issuer",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				delete(claims, "iss")
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong audience",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				claims["aud"] = "wrong-audience"
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "non-string subject claim",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				claims["sub"] = 7
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "non-numeric subject claim",
			setupRequest: func(t *testing.T, req *http.Request) {
				claims := validClaims()
				claims["sub"] = "casey"
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims, testJWTSecret))
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setupRequest(t, req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAuthRequired_NoneAlgorithmRejected(t *testing.T) {
	_, app := newAuthTestServer()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalUserID(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testJWTSecret}}

	app := fiber.New()
	app.Get("/maybe", func(c *fiber.Ctx) error {
		id, ok := s.optionalUserID(c)
		return c.JSON(fiber.Map{"id": id, "ok": ok})
	})

	t.Run("no header yields anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("garbage token yields anonymous not error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
