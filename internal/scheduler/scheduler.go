package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/LJTian/AIDaily/internal/report"
)

// ErrAlreadyRunning 上一轮还没结束时返回
var ErrAlreadyRunning = errors.New("daily job already running")

// Sink 接收每轮生成的日报，通常是存储层
type Sink interface {
	SaveDigest(ctx context.Context, d report.Digest, html []byte) error
}

// Runner 执行一轮采集，Pipeline 实现了它
type Runner interface {
	Run(ctx context.Context) (report.Digest, []byte, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	sink    Sink
	timeout time.Duration
	running sync.Mutex

	// ctx 在 Stop 时取消，定时任务和首轮都基于它
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	startTimer *time.Timer
}

// New spec 为标准 5 段 cron 表达式
func New(spec string, runner Runner, sink Sink) (*Scheduler, error) {
	c := cron.New()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:    c,
		runner:  runner,
		sink:    sink,
		timeout: 10 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		cancel()
		return nil, fmt.Errorf("add cron %q: %w", spec, err)
	}
	return s, nil
}

// Start 启动 cron，并在短暂延迟后跑首轮，避免和服务启动抢资源
func (s *Scheduler) Start(startupDelay time.Duration) {
	s.cron.Start()
	if startupDelay >= 0 {
		s.mu.Lock()
		s.startTimer = time.AfterFunc(startupDelay, s.runScheduled)
		s.mu.Unlock()
	}
}

// Stop 取消首轮和正在执行的任务，并等待 cron 退出
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	s.mu.Unlock()
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce 手动触发一轮；已有任务在跑时返回 ErrAlreadyRunning
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.TryLock() {
		return ErrAlreadyRunning
	}
	defer s.running.Unlock()

	lgr.Printf("[INFO] start daily job...")
	d, html, err := s.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	if s.sink != nil {
		if err := s.sink.SaveDigest(ctx, d, html); err != nil {
			return fmt.Errorf("save digest %s: %w", d.Date(), err)
		}
	}
	lgr.Printf("[INFO] daily job done, date=%s top=%d all=%d", d.Date(), len(d.Top), len(d.All))
	return nil
}

func (s *Scheduler) runScheduled() {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			lgr.Printf("[WARN] skip scheduled run: %v", err)
			return
		}
		lgr.Printf("[ERROR] daily job failed: %v", err)
	}
}
