package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/LJTian/AIDaily/internal/collector"
)

// DefaultBatchSize 每批并发抓取的站点数
const DefaultBatchSize = 5

// Range 一个 [Min, Max) 的随机时长区间；零值表示不等待
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Pick 在区间内均匀取值
func (r Range) Pick() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min))) //nolint:gosec // 仅用于随机等待
}

// DelayPolicy 控制随机等待，降低被识别为爬虫的概率；测试中用零值跳过等待
type DelayPolicy struct {
	Batch  Range // 批次之间
	Source Range // 每个站点请求前
}

// DefaultDelay 批次间 2-4s，单站点请求前 0.5-1.5s
func DefaultDelay() DelayPolicy {
	return DelayPolicy{
		Batch:  Range{Min: 2 * time.Second, Max: 4 * time.Second},
		Source: Range{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond},
	}
}

// SourceResult 单个数据源的抓取结果；Err 非空时 Articles 为空
type SourceResult struct {
	Source   collector.Source
	Articles []collector.Article
	Err      error
}

// Orchestrator 分批抓取所有数据源
type Orchestrator struct {
	Transports collector.Transports
	BatchSize  int
	Delay      DelayPolicy
}

// Batches 按顺序切分为固定大小的批次
func Batches(sources []collector.Source, size int) [][]collector.Source {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]collector.Source
	for i := 0; i < len(sources); i += size {
		end := min(i+size, len(sources))
		out = append(out, sources[i:end])
	}
	return out
}

// FetchAll 批内并发、批间随机等待，结果按数据源列表顺序返回。
// 单个站点失败只会让该站点结果为空，不影响同批其它站点；ctx 取消后不再开始新的批次。
func (o *Orchestrator) FetchAll(ctx context.Context, sources []collector.Source) []SourceResult {
	batches := Batches(sources, o.BatchSize)
	results := make([]SourceResult, 0, len(sources))

	for bi, batch := range batches {
		if ctx.Err() != nil {
			lgr.Printf("[WARN] fetch stopped before batch %d/%d: %v", bi+1, len(batches), ctx.Err())
			break
		}

		batchResults := make([]SourceResult, len(batch))
		var g errgroup.Group
		for i, src := range batch {
			i, src := i, src
			g.Go(func() error {
				batchResults[i] = o.fetchSource(ctx, src)
				return nil
			})
		}
		_ = g.Wait()
		results = append(results, batchResults...)

		if bi < len(batches)-1 {
			if err := sleep(ctx, o.Delay.Batch.Pick()); err != nil {
				lgr.Printf("[WARN] fetch interrupted after batch %d/%d: %v", bi+1, len(batches), err)
				break
			}
		}
	}

	total := 0
	for _, r := range results {
		total += len(r.Articles)
	}
	lgr.Printf("[INFO] total articles collected: %d from %d sources", total, len(results))
	return results
}

func (o *Orchestrator) fetchSource(ctx context.Context, src collector.Source) SourceResult {
	res := SourceResult{Source: src}
	if err := sleep(ctx, o.Delay.Source.Pick()); err != nil {
		res.Err = err
		return res
	}

	lgr.Printf("[DEBUG] fetching %s (%s)", src.Name, src.URL)
	raw, err := o.Transports.For(src).Fetch(ctx, src.URL)
	if err != nil {
		lgr.Printf("[WARN] %s failed: %v", src.Name, err)
		res.Err = err
		return res
	}

	articles, err := collector.Extract(raw, src)
	if err != nil {
		lgr.Printf("[WARN] %s extract failed: %v", src.Name, err)
		res.Err = err
		return res
	}
	lgr.Printf("[INFO] %s: %d articles found", src.Name, len(articles))
	res.Articles = articles
	return res
}

// Flatten 拼接所有数据源的文章，顺序与数据源列表一致
func Flatten(results []SourceResult) []collector.Article {
	var out []collector.Article
	for _, r := range results {
		out = append(out, r.Articles...)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
