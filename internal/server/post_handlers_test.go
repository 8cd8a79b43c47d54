package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type postTestEnv struct {
	server   *Server
	app      *fiber.App
	postRepo *MockPostRepository
	tagRepo  *MockTagRepository
}

func newPostTestEnv(isAdmin bool) *postTestEnv {
	postRepo := new(MockPostRepository)
	tagRepo := new(MockTagRepository)

	s := &Server{
		config:        &config.Config{JWTSecret: testJWTSecret},
		searchHistory: service.NewMemorySearchHistory(10),
	}
	s.postService = service.NewPostService(postRepo, tagRepo,
		func(ctx context.Context, userID uint) (bool, error) {
			return isAdmin, nil
		})

	app := fiber.New()
	authed := func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	}
	app.Get("/api/posts", s.GetPosts)
	app.Get("/api/posts/search", s.SearchPosts)
	app.Get("/api/posts/:id", s.GetPost)
	app.Get("/api/tags", s.GetTags)
	app.Post("/api/posts", authed, s.CreatePost)
	app.Put("/api/posts/:id", authed, s.UpdatePost)
	app.Delete("/api/posts/:id", authed, s.DeletePost)
	app.Post("/api/posts/:id/like", authed, s.LikePost)

	return &postTestEnv{server: s, app: app, postRepo: postRepo, tagRepo: tagRepo}
}

func TestCreatePost_WithTags(t *testing.T) {
	env := newPostTestEnv(false)

	env.tagRepo.On("GetOrCreate", mock.Anything, "go").
		Return(&models.Tag{ID: 1, Name: "go"}, nil)
	env.tagRepo.On("GetOrCreate", mock.Anything, "writing").
		Return(&models.Tag{ID: 2, Name: "writing"}, nil)
	env.postRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Post).ID = 1
		}).
		Return(nil)
	env.postRepo.On("GetByID", mock.Anything, uint(1), uint(7)).
		Return(&models.Post{ID: 1, Title: "First", UserID: 7,
			Tags: []models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "writing"}}}, nil)

	payload, _ := json.Marshal(fiber.Map{
		"title":   "First",
		"content": "Hello world",
		"tags":    []string{"Go", "Writing", "go"}, // dup and case both normalize away
	})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, uint(1), created.ID)
	assert.Len(t, created.Tags, 2)
	env.tagRepo.AssertNumberOfCalls(t, "GetOrCreate", 2)
}

func TestCreatePost_MissingTitle(t *testing.T) {
	env := newPostTestEnv(false)

	payload, _ := json.Marshal(fiber.Map{"content": "no title"})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env.postRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePost_InvalidTagRejected(t *testing.T) {
	env := newPostTestEnv(false)

	payload, _ := json.Marshal(fiber.Map{
		"title":   "Tagged",
		"content": "body",
		"tags":    []string{"no spaces allowed"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetPosts_AnonymousFeed(t *testing.T) {
	env := newPostTestEnv(false)

	env.postRepo.On("List", mock.Anything, 20, 0, uint(0), "").
		Return([]*models.Post{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	assert.Len(t, posts, 2)
}

func TestGetPosts_FilterByTag(t *testing.T) {
	env := newPostTestEnv(false)

	env.postRepo.On("ListByTag", mock.Anything, "go", 20, 0, uint(0), "top").
		Return([]*models.Post{{ID: 3, Title: "Go post"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?tag=Go&sort=top", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.postRepo.AssertExpectations(t)
}

func TestSearchPosts_EmptyQueryRejected(t *testing.T) {
	env := newPostTestEnv(false)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/search?q=%20%20", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchPosts_RecordsHistoryWhenFlagEnabled(t *testing.T) {
	env := newPostTestEnv(false)
	env.server.featureFlags = featureflags.NewManager("search_history=on")

	env.postRepo.On("Search", mock.Anything, "go generics", 10, 0, uint(7)).
		Return([]*models.Post{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/search?q=go+generics", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, validClaims(), testJWTSecret))

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	recent, err := env.server.searchHistory.Recent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"go generics"}, recent)
}

func TestSearchPosts_NoHistoryWithoutFlag(t *testing.T) {
	env := newPostTestEnv(false)

	env.postRepo.On("Search", mock.Anything, "quiet", 10, 0, uint(7)).
		Return([]*models.Post{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/search?q=quiet", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, validClaims(), testJWTSecret))

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	recent, err := env.server.searchHistory.Recent(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestUpdatePost_OnlyOwner(t *testing.T) {
	env := newPostTestEnv(false)

	env.postRepo.On("GetByID", mock.Anything, uint(5), uint(7)).
		Return(&models.Post{ID: 5, UserID: 99, Title: "Not yours"}, nil)

	payload, _ := json.Marshal(fiber.Map{"title": "Hijacked"})
	req := httptest.NewRequest(http.MethodPut, "/api/posts/5", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	env.postRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeletePost_AdminCanDeleteOthers(t *testing.T) {
	env := newPostTestEnv(true)

	env.postRepo.On("GetByID", mock.Anything, uint(5), uint(7)).
		Return(&models.Post{ID: 5, UserID: 99}, nil)
	env.postRepo.On("Delete", mock.Anything, uint(5)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/5", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	env.postRepo.AssertExpectations(t)
}

func TestLikePost_TogglesOff(t *testing.T) {
	env := newPostTestEnv(false)

	env.postRepo.On("IsLiked", mock.Anything, uint(7), uint(5)).Return(true, nil)
	env.postRepo.On("Unlike", mock.Anything, uint(7), uint(5)).Return(nil)
	env.postRepo.On("GetByID", mock.Anything, uint(5), uint(7)).
		Return(&models.Post{ID: 5, LikesCount: 0, Liked: false}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/5/like", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var post models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))
	assert.False(t, post.Liked)
	env.postRepo.AssertExpectations(t)
}

func TestGetPost_InvalidID(t *testing.T) {
	env := newPostTestEnv(false)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/not-a-number", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
