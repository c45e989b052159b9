package collector

import "context"

// Article 单个数据源抽取出的一条文章，产生后不再修改
type Article struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// Fetcher 抽象页面获取方式：直连 HTTP 或者外部命令，返回原始 HTML
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc 便于测试时直接用函数替代
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
