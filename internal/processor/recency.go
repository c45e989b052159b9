package processor

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/LJTian/AIDaily/internal/collector"
)

// RecencyWindow 只保留该时间窗口内的文章
const RecencyWindow = 24 * time.Hour

// isoLayouts 先按 ISO 格式解析
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// displayLayouts 常见的页面日期展示格式，按顺序尝试
var displayLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan. 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"01/02/2006",
	"2006/01/02",
	"2006年1月2日",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate 依次尝试 ISO、常见展示格式，最后交给 dateparse
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	for _, layout := range displayLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	// 纯数字（年份、阅读数等）dateparse 会当成日期，这里不认
	if isDigits(text) {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseStrict(text); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// IsRecent 日期解析失败时视为最新（宁可多留也不误删）
func IsRecent(dateText string, ref time.Time, window time.Duration) bool {
	t, ok := ParseDate(dateText)
	if !ok {
		return true
	}
	return t.After(ref.Add(-window))
}

// FilterRecent 对混有旧内容的博客类来源按时间过滤；HN 这类聚合页本身按时间排序，不过滤
func FilterRecent(articles []collector.Article, kind collector.Kind, ref time.Time, window time.Duration) []collector.Article {
	if kind != collector.KindBlog && kind != collector.KindMedium {
		return articles
	}
	out := make([]collector.Article, 0, len(articles))
	for _, a := range articles {
		if IsRecent(a.Date, ref, window) {
			out = append(out, a)
		}
	}
	return out
}
