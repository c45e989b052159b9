package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/LJTian/AIDaily/internal/report"
)

// Memory 未配置数据库时使用，只保留最近 keep 天的日报
type Memory struct {
	mu       sync.RWMutex
	keep     int
	digests  map[string]Digest
	articles map[string][]Article
}

func NewMemory(keep int) *Memory {
	if keep <= 0 {
		keep = 7
	}
	return &Memory{
		keep:     keep,
		digests:  make(map[string]Digest),
		articles: make(map[string][]Article),
	}
}

func (m *Memory) SaveDigest(_ context.Context, d report.Digest, html []byte) error {
	date := d.Date()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.digests[date] = Digest{
		Date:        date,
		GeneratedAt: d.GeneratedAt,
		Scanned:     d.Scanned,
		SourceCount: d.SourceCount,
		TopCount:    len(d.Top),
		HTML:        string(html),
	}
	m.articles[date] = toRows(d)

	dates := m.sortedDates()
	for _, old := range dates[min(len(dates), m.keep):] {
		delete(m.digests, old)
		delete(m.articles, old)
	}
	return nil
}

// sortedDates 倒序，调用方需持有锁
func (m *Memory) sortedDates() []string {
	dates := make([]string, 0, len(m.digests))
	for d := range m.digests {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func (m *Memory) LatestHTML(ctx context.Context) ([]byte, error) {
	return m.HTMLByDate(ctx, "")
}

func (m *Memory) HTMLByDate(_ context.Context, date string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if date == "" {
		dates := m.sortedDates()
		if len(dates) == 0 {
			return nil, ErrNotFound
		}
		date = dates[0]
	}
	d, ok := m.digests[date]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(d.HTML), nil
}

func (m *Memory) ListArticles(_ context.Context, q ArticleQuery) ([]Article, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	date := q.Date
	if date == "" {
		dates := m.sortedDates()
		if len(dates) == 0 {
			return []Article{}, nil
		}
		date = dates[0]
	}
	list := make([]Article, 0, q.Limit)
	for _, a := range m.articles[date] {
		if q.Source != "" && a.Source != q.Source {
			continue
		}
		list = append(list, a)
		if len(list) == q.Limit {
			break
		}
	}
	return list, nil
}

func (m *Memory) ListDates(_ context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > 365 {
		limit = 31
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	dates := m.sortedDates()
	return dates[:min(len(dates), limit)], nil
}
