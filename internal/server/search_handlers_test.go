package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchHistoryApp() (*Server, *fiber.App) {
	s := &Server{
		config:        &config.Config{JWTSecret: testJWTSecret},
		searchHistory: service.NewMemorySearchHistory(3),
	}
	app := fiber.New()
	authed := func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	}
	app.Get("/api/searches/recent", authed, s.GetRecentSearches)
	app.Delete("/api/searches/recent", authed, s.ClearRecentSearches)
	return s, app
}

func TestGetRecentSearches_EmptyIsArrayNotNull(t *testing.T) {
	_, app := newSearchHistoryApp()

	req := httptest.NewRequest(http.MethodGet, "/api/searches/recent", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Queries []string `json:"queries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Queries)
	assert.Empty(t, body.Queries)
}

func TestGetRecentSearches_NewestFirstDeduplicated(t *testing.T) {
	s, app := newSearchHistoryApp()
	ctx := context.Background()

	require.NoError(t, s.searchHistory.Record(ctx, 7, "go generics"))
	require.NoError(t, s.searchHistory.Record(ctx, 7, "fiber middleware"))
	require.NoError(t, s.searchHistory.Record(ctx, 7, "go generics")) // moves to front

	req := httptest.NewRequest(http.MethodGet, "/api/searches/recent", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Queries []string `json:"queries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"go generics", "fiber middleware"}, body.Queries)
}

func TestClearRecentSearches(t *testing.T) {
	s, app := newSearchHistoryApp()
	ctx := context.Background()

	require.NoError(t, s.searchHistory.Record(ctx, 7, "something"))

	req := httptest.NewRequest(http.MethodDelete, "/api/searches/recent", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	recent, err := s.searchHistory.Recent(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
