package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository/memory"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/routes"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
)

type testAPI struct {
	t     *testing.T
	app   *fiber.App
	store *memory.Store
}

func newTestAPI(t *testing.T, limits routes.Limits, uploads services.ObjectStore) *testAPI {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "routes-test-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	store := memory.NewStore()
	authService := services.NewAuthService(store, cfg)

	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Health:   handlers.NewHealthHandler(store),
		Projects: handlers.NewProjectHandler(services.NewProjectService(store, services.ModerationFor(cfg))),
	}
	if uploads != nil {
		uploadService := services.NewUploadService(uploads)
		authService.UseUploads(uploadService)
		h.Uploads = handlers.NewUploadHandler(uploadService)
	}

	app := fiber.New()
	routes.Setup(app, cfg, authService, h, limits)
	return &testAPI{t: t, app: app, store: store}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testAPI) send(req *http.Request, token string) (int, []byte) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, out
}

// signup registers a user and returns its id and access token.
func (a *testAPI) signup(email, name string) (string, string) {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: email, Name: name, Password: "password123",
	})
	require.Equal(a.t, http.StatusCreated, status, string(body))
	var user dto.UserResponse
	require.NoError(a.t, json.Unmarshal(body, &user))

	form := url.Values{"username": {email}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, body = a.send(req, "")
	require.Equal(a.t, http.StatusOK, status, string(body))
	var tokens dto.TokenResponse
	require.NoError(a.t, json.Unmarshal(body, &tokens))
	return user.ID, tokens.AccessToken
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestProjectLifecycle(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	ownerID, ownerToken := api.signup("owner@example.com", "Owner")
	_, otherToken := api.signup("other@example.com", "Other")

	status, body := api.do(http.MethodPost, "/api/projects", ownerToken, map[string]interface{}{
		"title": "API", "description": "Build an API", "budget": 200, "tech_stack": []string{"Go"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	project := decode[dto.ProjectResponse](t, body)
	assert.Equal(t, ownerID, project.UserID)
	assert.Equal(t, "OPEN", string(project.Status))
	assert.Equal(t, 0, project.Likes)
	assert.Empty(t, project.Comments)
	path := "/api/projects/" + project.ID

	status, body = api.do(http.MethodPost, path+"/like", otherToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, dto.LikeResponse{Liked: true, Likes: 1}, decode[dto.LikeResponse](t, body))

	status, body = api.do(http.MethodPost, path+"/like", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dto.LikeResponse{Liked: false, Likes: 0}, decode[dto.LikeResponse](t, body))

	status, body = api.do(http.MethodGet, path+"/like", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[dto.LikeResponse](t, body).Liked)

	status, body = api.do(http.MethodPost, path+"/comments", otherToken, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, status, string(body))
	comment := decode[dto.CommentResponse](t, body)
	assert.Equal(t, "nice", comment.Text)
	assert.Equal(t, "Other", comment.User.Name)

	status, body = api.do(http.MethodPatch, path, otherToken, map[string]string{"title": "stolen"})
	assert.Equal(t, http.StatusForbidden, status, string(body))
	assert.True(t, decode[dto.ErrorResponse](t, body).Error)

	status, body = api.do(http.MethodPatch, path, ownerToken, map[string]interface{}{"budget": 300})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 300, decode[dto.ProjectResponse](t, body).Budget)

	status, body = api.do(http.MethodPatch, path+"/status", ownerToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "COMPLETED", string(decode[dto.ProjectResponse](t, body).Status))

	status, _ = api.do(http.MethodPatch, path+"/status", ownerToken, map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPatch, path+"/status", ownerToken, map[string]string{"status": "ARCHIVED"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = api.do(http.MethodGet, "/api/projects/user", ownerToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Len(t, decode[[]dto.ProjectResponse](t, body), 1)

	status, _ = api.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/projects/user"},
		{http.MethodPost, "/api/projects/x/like"},
		{http.MethodPost, "/api/projects/x/comments"},
		{http.MethodDelete, "/api/projects/x"},
		{http.MethodGet, "/api/auth/me"},
	} {
		status, _ := api.do(r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, r.path)

		status, _ = api.do(r.method, r.path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
	}

	status, _ := api.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestDeletedUserTokenRejected(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	_, token := api.signup("gone@example.com", "Gone")

	status, body := api.do(http.MethodDelete, "/api/auth/account", token, map[string]string{"password": "password123"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListProjectsQuery(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	_, token := api.signup("owner@example.com", "Owner")

	for _, p := range []struct {
		title  string
		budget int
		tech   []string
	}{
		{"go-small", 50, []string{"Go"}},
		{"rust-mid", 300, []string{"Rust"}},
		{"py-big", 900, []string{"Python"}},
	} {
		status, body := api.do(http.MethodPost, "/api/projects", token, map[string]interface{}{
			"title": p.title, "description": "", "budget": p.budget, "tech_stack": p.tech,
		})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	titles := func(query string) []string {
		status, body := api.do(http.MethodGet, "/api/projects"+query, "", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var out []string
		for _, p := range decode[[]dto.ProjectResponse](t, body) {
			out = append(out, p.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"go-small", "rust-mid"}, titles("?tech_stack=Go,Rust"))
	assert.ElementsMatch(t, []string{"rust-mid"}, titles("?min_budget=100&max_budget=500"))
	assert.Len(t, titles("?limit=2"), 2)
	assert.Len(t, titles("?skip=2"), 1)
	assert.Len(t, titles("?limit=0"), 3)

	for _, bad := range []string{"?skip=-1", "?limit=abc", "?min_budget=cheap"} {
		status, _ := api.do(http.MethodGet, "/api/projects"+bad, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status, bad)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	_, token := api.signup("owner@example.com", "Owner")

	status, _ := api.do(http.MethodPost, "/api/projects", token, map[string]interface{}{"title": "no budget", "tech_stack": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	status, _ = api.send(req, token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	_, token := api.signup("dev@example.com", "Dev")

	status, body := api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dev@example.com", decode[dto.UserResponse](t, body).Email)

	status, body = api.do(http.MethodPatch, "/api/auth/profile", token, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Renamed", decode[dto.UserResponse](t, body).Name)

	status, _ = api.do(http.MethodPatch, "/api/auth/profile/image", token, map[string]string{"image_url": "https://cdn.example.com/me.png"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodPatch, "/api/auth/profile/image", token, map[string]string{"image_url": "https://cdn.example.com/me.png"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "dev@example.com", Name: "Dup", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/auth/token", "", map[string]string{"email": "dev@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndRoot(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)

	status, body := api.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Welcome")

	status, body = api.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	health := decode[dto.HealthResponse](t, body)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DB)

	api.store.PingErr = assert.AnError
	_, body = api.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, "degraded", decode[dto.HealthResponse](t, body).Status)
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t, routes.Limits{Auth: 2}, nil)

	creds := map[string]string{"email": "nobody@example.com", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		status, _ := api.do(http.MethodPost, "/api/auth/token", "", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, body := api.do(http.MethodPost, "/api/auth/token", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.True(t, decode[dto.ErrorResponse](t, body).Error)

	status, _ = api.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusOK, status, "limit applies to auth routes only")
}

type memObjects struct{ stored map[string][]byte }

func (m *memObjects) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.stored[key] = body
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.stored, key)
	return nil
}

func (m *memObjects) URL(key string) string { return "https://cdn.example.com/" + key }

func (m *memObjects) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, "https://cdn.example.com/")
}

func TestUploadImage(t *testing.T) {
	objects := &memObjects{stored: map[string][]byte{}}
	api := newTestAPI(t, routes.Limits{}, objects)
	_, token := api.signup("dev@example.com", "Dev")

	upload := func(contentType string, data []byte) (int, []byte) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="avatar"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return api.send(req, token)
	}

	status, body := upload("image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusCreated, status, string(body))
	resp := decode[dto.UploadResponse](t, body)
	assert.Equal(t, []byte("png-bytes"), objects.stored[resp.Key])
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.URL)

	status, _ = upload("text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)

	status, body = api.do(http.MethodPatch, "/api/auth/profile/image", token, map[string]string{"image_url": resp.URL})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = upload("image/jpeg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, status, string(body))
	second := decode[dto.UploadResponse](t, body)

	status, body = api.do(http.MethodPatch, "/api/auth/profile/image", token, map[string]string{"image_url": second.URL})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotContains(t, objects.stored, resp.Key, "replaced avatar is removed")
	assert.Contains(t, objects.stored, second.Key)
}

func TestUploadRouteAbsentWhenDisabled(t *testing.T) {
	api := newTestAPI(t, routes.Limits{}, nil)
	_, token := api.signup("dev@example.com", "Dev")

	status, _ := api.do(http.MethodPost, "/api/uploads", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
