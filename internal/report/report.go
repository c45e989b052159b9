// Package report renders the daily digest into a self-contained HTML page.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"time"

	"github.com/LJTian/AIDaily/internal/collector"
)

//go:embed templates/daily.html
var templatesFS embed.FS

var dailyTmpl = template.Must(template.New("daily.html").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(templatesFS, "templates/daily.html"))

// Location 日报日期按东八区展示
var Location *time.Location

func init() {
	Location, _ = time.LoadLocation("Asia/Shanghai")
	if Location == nil {
		Location = time.FixedZone("CST", 8*3600)
	}
}

// Digest 一次运行的结果以及页面上展示的统计信息
type Digest struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Top         []collector.Article `json:"top"`
	All         []collector.Article `json:"all"`
	Scanned     int                 `json:"scanned"`
	SourceCount int                 `json:"sourceCount"`
}

// Date 东八区日期，形如 2025-01-02
func (d Digest) Date() string {
	return d.GeneratedAt.In(Location).Format("2006-01-02")
}

// Time 东八区时间，形如 08:30
func (d Digest) Time() string {
	return d.GeneratedAt.In(Location).Format("15:04")
}

// Render 输出 HTML，所有文章字段都会被转义
func Render(w io.Writer, d Digest) error {
	if err := dailyTmpl.Execute(w, d); err != nil {
		return fmt.Errorf("render daily report: %w", err)
	}
	return nil
}

// RenderBytes 渲染到内存，便于同时写文件、写缓存
func RenderBytes(d Digest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName 按日期生成输出文件路径
func FileName(dir string, d Digest) string {
	return filepath.Join(dir, "ai-daily-"+d.Date()+".html")
}
