package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/LJTian/AIDaily/internal/api"
	"github.com/LJTian/AIDaily/internal/collector"
	"github.com/LJTian/AIDaily/internal/config"
	"github.com/LJTian/AIDaily/internal/scheduler"
	"github.com/LJTian/AIDaily/internal/storage"
)

// Opts 命令行参数，未指定时使用环境变量配置
type Opts struct {
	Port  string `short:"p" long:"port" description:"listen port"`
	Top   int    `short:"n" long:"top" description:"number of top picks"`
	Debug bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
}

// dailyStore 服务端既要写入日报，也要对外提供查询
type dailyStore interface {
	api.Store
	scheduler.Sink
}

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	setupLog(opts.Debug)

	cfg := config.Load()
	if opts.Port != "" {
		cfg.AppPort = opts.Port
	}
	if opts.Top > 0 {
		cfg.TopN = opts.Top
	}

	var store dailyStore
	if cfg.PostgresDSN != "" {
		s, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			lgr.Fatalf("[ERROR] init store failed: %v", err)
		}
		store = s
	} else {
		lgr.Printf("[WARN] POSTGRES_DSN not set, keep digests in memory")
		store = storage.NewMemory(7)
	}

	p := scheduler.NewPipeline(collector.DefaultSources(), collector.NewTransports(cfg.FetchTimeout, cfg.FetchRetries), cfg.TopN)
	if cfg.TranslateEnabled {
		p.Translator = collector.NewTranslator(cfg.TranslateAPIKey)
	}

	s, err := scheduler.New(cfg.CronSpec, p, store)
	if err != nil {
		lgr.Fatalf("[ERROR] init scheduler failed: %v", err)
	}
	// 启动后稍等再跑首轮，避免和服务启动抢资源
	s.Start(15 * time.Second)

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}
	api.NewServer(store, s).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] termination signal received")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] http shutdown: %v", err)
		}
	}()

	lgr.Printf("[INFO] starting api server at %s ...", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Printf("[ERROR] server exit: %v", err)
		s.Stop()
		os.Exit(1)
	}
	s.Stop()
	lgr.Printf("[INFO] shutdown complete")
}

func setupLog(dbg bool) {
	var logOpts []lgr.Option
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
