package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os/exec"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-pkgz/lgr"
	"github.com/gocolly/colly/v2"
)

const (
	fetchTimeout   = 20 * time.Second
	maxBodyBytes   = 4 << 20 // 4MB，列表页不会更大
	browserUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultCurlBin = "curl"
)

var acceptLanguages = []string{
	"zh-CN,zh;q=0.9,en;q=0.8",
	"en-US,en;q=0.9",
	"en-US,en;q=0.9,zh-CN;q=0.8",
}

// StatusError 表示对端返回了非 2xx 状态码
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// CollyFetcher 直连抓取，带浏览器风格的请求头
type CollyFetcher struct {
	Timeout time.Duration
}

// NewCollyFetcher timeout <= 0 时使用默认的 20s
func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = fetchTimeout
	}
	return &CollyFetcher{Timeout: timeout}
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(browserUA),
		colly.MaxBodySize(maxBodyBytes),
	)
	c.SetRequestTimeout(f.Timeout)

	c.OnRequest(func(r *colly.Request) {
		setBrowserHeaders(r.Headers)
	})

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = bytes.Clone(r.Body)
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if status >= 300 {
			return "", &StatusError{URL: url, StatusCode: status}
		}
		return "", fmt.Errorf("visit %s: %w", url, err)
	}
	if status < 200 || status >= 300 {
		return "", &StatusError{URL: url, StatusCode: status}
	}
	return string(body), nil
}

func setBrowserHeaders(h *http.Header) {
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))]) //nolint:gosec // 仅用于请求头变化
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Cache-Control", "max-age=0")
}

// CommandFetcher 通过 curl 抓取，用于直连会被反爬拦截的站点
type CommandFetcher struct {
	Binary  string
	Timeout time.Duration
}

func NewCommandFetcher(timeout time.Duration) *CommandFetcher {
	if timeout <= 0 {
		timeout = fetchTimeout
	}
	return &CommandFetcher{Binary: defaultCurlBin, Timeout: timeout}
}

func (f *CommandFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout+2*time.Second)
	defer cancel()

	bin := f.Binary
	if bin == "" {
		bin = defaultCurlBin
	}
	// 参数逐个传递，不经过 shell
	cmd := exec.CommandContext(ctx, bin,
		"-s", "-L", "--fail",
		"--max-time", strconv.Itoa(int(f.Timeout.Seconds())),
		"--max-filesize", strconv.Itoa(maxBodyBytes),
		"-A", browserUA,
		url,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("curl %s: %w (%s)", url, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return string(out), nil
}

// RetryFetcher 在底层 Fetcher 外包一层指数退避重试；4xx 不重试
type RetryFetcher struct {
	Next       Fetcher
	MaxRetries uint64
	Initial    time.Duration
	MaxDelay   time.Duration
}

func (f *RetryFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.MaxRetries == 0 {
		return f.Next.Fetch(ctx, url)
	}

	b := backoff.NewExponentialBackOff()
	if f.Initial > 0 {
		b.InitialInterval = f.Initial
	}
	if f.MaxDelay > 0 {
		b.MaxInterval = f.MaxDelay
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, f.MaxRetries), ctx)

	var html string
	op := func() error {
		out, err := f.Next.Fetch(ctx, url)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		html = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		lgr.Printf("[DEBUG] retry %s in %v: %v", url, wait, err)
	}
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return "", err
	}
	return html, nil
}

// Transports 按 Source.Transport 选择 Fetcher
type Transports struct {
	Direct  Fetcher
	Command Fetcher
}

// NewTransports 构造默认的两种抓取方式，retries > 0 时带重试
func NewTransports(timeout time.Duration, retries uint64) Transports {
	wrap := func(f Fetcher) Fetcher {
		if retries == 0 {
			return f
		}
		return &RetryFetcher{Next: f, MaxRetries: retries, Initial: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
	}
	return Transports{
		Direct:  wrap(NewCollyFetcher(timeout)),
		Command: wrap(NewCommandFetcher(timeout)),
	}
}

// For 返回某个数据源应使用的 Fetcher；未配置命令方式时退回直连
func (t Transports) For(src Source) Fetcher {
	if src.Transport == TransportCommand && t.Command != nil {
		return t.Command
	}
	return t.Direct
}
