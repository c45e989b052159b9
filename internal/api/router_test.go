package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/AIDaily/internal/collector"
	"github.com/LJTian/AIDaily/internal/report"
	"github.com/LJTian/AIDaily/internal/storage"
)

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type triggerFunc func(ctx context.Context) error

func (f triggerFunc) RunOnce(ctx context.Context) error { return f(ctx) }

type brokenStore struct{}

func (brokenStore) LatestHTML(context.Context) ([]byte, error) { return nil, errors.New("db down") }
func (brokenStore) HTMLByDate(context.Context, string) ([]byte, error) {
	return nil, errors.New("db down")
}
func (brokenStore) ListArticles(context.Context, storage.ArticleQuery) ([]storage.Article, error) {
	return nil, errors.New("db down")
}
func (brokenStore) ListDates(context.Context, int) ([]string, error) { return nil, errors.New("db down") }

func newTestEngine(t *testing.T, store Store, trigger Trigger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(store, trigger).RegisterRoutes(r)
	return r
}

func seededMemory(t *testing.T) *storage.Memory {
	t.Helper()
	m := storage.NewMemory(7)
	d := report.Digest{
		GeneratedAt: time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC),
		All: []collector.Article{
			{Source: "OpenAI News", Title: "New model", Link: "https://openai.com/1", Date: "Recent"},
			{Source: "HN (中文)", Title: "讨论", Link: "https://news.ycombinator.com/1", Date: "Today"},
		},
	}
	d.Top = d.All[:1]
	require.NoError(t, m.SaveDigest(context.Background(), d, []byte("<html>daily</html>")))
	return m
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestEngine(t, storage.NewMemory(1), nil)
	w := do(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDailyHTML(t *testing.T) {
	r := newTestEngine(t, seededMemory(t), nil)

	for _, path := range []string{"/daily", "/daily/2025-01-02"} {
		w := do(r, http.MethodGet, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "s-maxage=3600, stale-while-revalidate", w.Header().Get("Cache-Control"))
		assert.Equal(t, "<html>daily</html>", w.Body.String())
	}

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/daily/2024-12-31").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/daily/yesterday").Code)
}

func TestDailyNotFoundWhenEmpty(t *testing.T) {
	r := newTestEngine(t, storage.NewMemory(1), nil)
	w := do(r, http.MethodGet, "/daily")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestListArticles(t *testing.T) {
	r := newTestEngine(t, seededMemory(t), nil)

	w := do(r, http.MethodGet, "/api/v1/articles?source=OpenAI%20News")
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Code)

	var items []storage.Article
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "New model", items[0].Title)
	assert.True(t, items[0].Top)

	w = do(r, http.MethodGet, "/api/v1/articles?date=2025-01-02&limit=bad")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestListDates(t *testing.T) {
	r := newTestEngine(t, seededMemory(t), nil)
	w := do(r, http.MethodGet, "/api/v1/dates")
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.JSONEq(t, `["2025-01-02"]`, string(env.Data))

	r = newTestEngine(t, storage.NewMemory(1), nil)
	w = do(r, http.MethodGet, "/api/v1/dates")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestStoreErrors(t *testing.T) {
	r := newTestEngine(t, brokenStore{}, nil)
	for _, path := range []string{"/daily", "/daily/2025-01-02", "/api/v1/articles", "/api/v1/dates"} {
		w := do(r, http.MethodGet, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"code":"internal_error","message":"internal server error"}`, w.Body.String(), path)
	}
}

func TestRefresh(t *testing.T) {
	called := make(chan struct{}, 1)
	r := newTestEngine(t, storage.NewMemory(1), triggerFunc(func(context.Context) error {
		called <- struct{}{}
		return nil
	}))

	w := do(r, http.MethodPost, "/api/v1/refresh")
	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("refresh did not trigger a run")
	}

	// 未配置 trigger 时不提供该接口
	r = newTestEngine(t, storage.NewMemory(1), nil)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/refresh").Code)
}

func TestBasicAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BasicAuth("admin", "secret"))
	NewServer(seededMemory(t), nil).RegisterRoutes(r)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health").Code)

	w := do(r, http.MethodGet, "/daily")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/daily", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/daily", nil)
	req.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
