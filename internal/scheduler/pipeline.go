package scheduler

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/LJTian/AIDaily/internal/collector"
	"github.com/LJTian/AIDaily/internal/processor"
	"github.com/LJTian/AIDaily/internal/report"
)

// DefaultTopN 日报精选条数
const DefaultTopN = 10

// ArticleTranslator 翻译精选文章，collector.Translator 实现了它
type ArticleTranslator interface {
	TranslateArticles(ctx context.Context, in []collector.Article) []collector.Article
}

// Pipeline 抓取 → 时间过滤 → 去重 → 取前 N → 渲染；命令行和服务端共用
type Pipeline struct {
	Orchestrator *Orchestrator
	Sources      []collector.Source
	TopN         int
	Window       time.Duration
	// Translator 为空时不翻译
	Translator ArticleTranslator
	Now        func() time.Time
}

// NewPipeline 使用默认批大小和随机延迟
func NewPipeline(sources []collector.Source, transports collector.Transports, topN int) *Pipeline {
	return &Pipeline{
		Orchestrator: &Orchestrator{
			Transports: transports,
			BatchSize:  DefaultBatchSize,
			Delay:      DefaultDelay(),
		},
		Sources: sources,
		TopN:    topN,
	}
}

// Run 单个站点的失败不会返回错误，只有渲染失败才会
func (p *Pipeline) Run(ctx context.Context) (report.Digest, []byte, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	window := p.Window
	if window <= 0 {
		window = processor.RecencyWindow
	}
	topN := p.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	started := now()
	results := p.Orchestrator.FetchAll(ctx, p.Sources)

	scanned := 0
	var filtered []collector.Article
	for _, r := range results {
		scanned += len(r.Articles)
		filtered = append(filtered, processor.FilterRecent(r.Articles, r.Source.Kind, started, window)...)
	}
	all := processor.Dedupe(filtered)
	top := processor.Top(all, topN)
	if p.Translator != nil && len(top) > 0 {
		// 精选是 All 的前缀，译文写回 All，入库和页面保持一致
		merged := make([]collector.Article, 0, len(all))
		merged = append(merged, p.Translator.TranslateArticles(ctx, top)...)
		all = append(merged, all[len(top):]...)
		top = all[:len(top)]
	}
	lgr.Printf("[INFO] pipeline: scanned=%d recent=%d unique=%d top=%d", scanned, len(filtered), len(all), len(top))

	d := report.Digest{
		GeneratedAt: now(),
		Top:         top,
		All:         all,
		Scanned:     scanned,
		SourceCount: len(p.Sources),
	}
	html, err := report.RenderBytes(d)
	if err != nil {
		return d, nil, err
	}
	return d, html, nil
}
