package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/lgr"

	"github.com/LJTian/AIDaily/internal/storage"
)

const htmlCacheControl = "s-maxage=3600, stale-while-revalidate"

// Store 是 API 依赖的存储能力，storage.Store 与 storage.Memory 都实现了它
type Store interface {
	LatestHTML(ctx context.Context) ([]byte, error)
	HTMLByDate(ctx context.Context, date string) ([]byte, error)
	ListArticles(ctx context.Context, q storage.ArticleQuery) ([]storage.Article, error)
	ListDates(ctx context.Context, limit int) ([]string, error)
}

// Trigger 手动触发一轮采集，通常是 scheduler.Scheduler
type Trigger interface {
	RunOnce(ctx context.Context) error
}

type Server struct {
	store   Store
	trigger Trigger
	// refreshTimeout 单次手动刷新的超时
	refreshTimeout time.Duration
}

// NewServer trigger 为空时不注册 /api/v1/refresh
func NewServer(store Store, trigger Trigger) *Server {
	return &Server{store: store, trigger: trigger, refreshTimeout: 10 * time.Minute}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/daily", s.latestDaily)
	r.GET("/daily/:date", s.dailyByDate)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/dates", s.listDates)
		if s.trigger != nil {
			v1.POST("/refresh", s.refresh)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) latestDaily(c *gin.Context) {
	html, err := s.store.LatestHTML(c.Request.Context())
	s.writeHTML(c, html, err)
}

func (s *Server) dailyByDate(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "date must be YYYY-MM-DD",
		})
		return
	}
	html, err := s.store.HTMLByDate(c.Request.Context(), date)
	s.writeHTML(c, html, err)
}

func (s *Server) writeHTML(c *gin.Context, html []byte, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "digest not found",
		})
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] load daily html: %v", err)
		internalError(c)
		return
	}
	c.Header("Cache-Control", htmlCacheControl)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) listArticles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	items, err := s.store.ListArticles(c.Request.Context(), storage.ArticleQuery{
		Date:   c.Query("date"),
		Source: c.Query("source"),
		Limit:  limit,
	})
	if err != nil {
		lgr.Printf("[ERROR] list articles: %v", err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listDates(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "31"))
	if err != nil || limit <= 0 {
		limit = 31
	}

	dates, err := s.store.ListDates(c.Request.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] list dates: %v", err)
		internalError(c)
		return
	}
	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    dates,
	})
}

// refresh 异步执行，请求不等待采集完成
func (s *Server) refresh(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if err := s.trigger.RunOnce(ctx); err != nil {
			lgr.Printf("[WARN] manual refresh: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"code":    "ok",
		"message": "refresh started",
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
