package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/LJTian/AIDaily/internal/collector"
	"github.com/LJTian/AIDaily/internal/config"
	"github.com/LJTian/AIDaily/internal/report"
	"github.com/LJTian/AIDaily/internal/scheduler"
	"github.com/LJTian/AIDaily/internal/storage"
)

// Opts 命令行参数，未指定时使用环境变量配置
type Opts struct {
	Output string `short:"o" long:"output" description:"output directory for the html report"`
	Top    int    `short:"n" long:"top" description:"number of top picks"`
	Save   bool   `long:"save" description:"also save the digest to POSTGRES_DSN"`
	Debug  bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
}

// 仅执行一次采集并生成日报文件，适合手动触发或外部定时任务
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
	if opts.Output != "" {
		cfg.OutputDir = opts.Output
	}
	if opts.Top > 0 {
		cfg.TopN = opts.Top
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts.Save); err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, save bool) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}

	p := scheduler.NewPipeline(collector.DefaultSources(), collector.NewTransports(cfg.FetchTimeout, cfg.FetchRetries), cfg.TopN)
	if cfg.TranslateEnabled {
		p.Translator = collector.NewTranslator(cfg.TranslateAPIKey)
	}

	lgr.Printf("[INFO] starting AI daily crawler, sources=%d", len(p.Sources))
	d, html, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if len(d.All) == 0 {
		lgr.Printf("[WARN] no articles found, nothing written")
		return nil
	}

	path := report.FileName(cfg.OutputDir, d)
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	lgr.Printf("[INFO] report generated: %s", abs)
	lgr.Printf("[INFO] total: %d articles, top picks: %d", len(d.All), len(d.Top))

	if !save {
		return nil
	}
	return saveDigest(ctx, cfg, d, html)
}

// saveDigest 未配置 POSTGRES_DSN 时只告警，不算失败
func saveDigest(ctx context.Context, cfg *config.Config, d report.Digest, html []byte) error {
	if cfg.PostgresDSN == "" {
		lgr.Printf("[WARN] --save ignored, POSTGRES_DSN is not set")
		return nil
	}
	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		return err
	}
	return store.SaveDigest(ctx, d, html)
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
