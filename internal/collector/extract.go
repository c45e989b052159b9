package collector

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// SummaryLimit 摘要最多保留的字符数（按 rune 计）
	SummaryLimit = 200

	blogLimit = 10
	hnLimit   = 20

	mediumOrigin = "https://medium.com"

	dateRecent = "Recent"
	dateToday  = "Today"
)

// strategy 一类站点的抽取规则；选择器都取容器内第一个匹配
type strategy struct {
	container string
	title     string
	link      string
	date      string // 为空时使用 fallbackDate
	summary   string // 为空时摘要直接取标题
	limit     int
	// fallbackDate 没抽到日期时的占位文本
	fallbackDate string
	// origin 非空时相对链接基于它解析，否则基于数据源 URL
	origin string
}

var strategies = map[Kind]strategy{
	KindBlog: {
		container:    `article, .post, .entry, .blog-post, [class*="post"], [class*="card"]`,
		title:        `h1, h2, h3, .title, [class*="title"]`,
		link:         `a`,
		date:         `time, .date, [class*="date"]`,
		summary:      `p, .excerpt, .summary, [class*="description"]`,
		limit:        blogLimit,
		fallbackDate: dateRecent,
	},
	KindMedium: {
		container:    `article, div[class*="streamItem"]`,
		title:        `h2, h3, [data-testid*="title"]`,
		link:         `a[href*="/"]`,
		summary:      `p, [class*="subtitle"]`,
		limit:        blogLimit,
		fallbackDate: dateRecent,
		origin:       mediumOrigin,
	},
	KindHN: {
		container:    `.item, .athing`,
		title:        `.titleline a, .storylink`,
		link:         `.titleline a, .storylink`,
		limit:        hnLimit,
		fallbackDate: dateToday,
	},
}

var textPolicy = bluemonday.StrictPolicy()

// Extract 按数据源类型解析列表页，返回至多 limit 条候选文章。
// 找不到任何条目不算错误，只会返回空结果。
func Extract(raw string, src Source) ([]Article, error) {
	st, ok := strategies[src.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q for %s", src.Kind, src.Name)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html for %s: %w", src.Name, err)
	}

	base := src.URL
	if st.origin != "" {
		base = st.origin
	}

	out := make([]Article, 0, st.limit)
	doc.Find(st.container).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= st.limit {
			return false
		}

		title := nodeText(s.Find(st.title).First())
		href, _ := s.Find(st.link).First().Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return true
		}
		link := resolveLink(base, href)
		if link == "" {
			return true
		}

		date := ""
		if st.date != "" {
			dateSel := s.Find(st.date).First()
			date = cleanText(dateSel.Text())
			if date == "" {
				date = strings.TrimSpace(dateSel.AttrOr("datetime", ""))
			}
		}
		if date == "" {
			date = st.fallbackDate
		}

		summary := ""
		if st.summary != "" {
			summary = truncateRunes(nodeText(s.Find(st.summary).First()), SummaryLimit)
		}
		if summary == "" {
			summary = title
		}

		out = append(out, Article{
			Source:  src.Name,
			Title:   title,
			Link:    link,
			Date:    date,
			Summary: summary,
		})
		return true
	})

	return out, nil
}

// nodeText 取节点内 HTML 去掉标签后的文本；实体在净化之后才解码，
// 所以标题里转义过的 &lt;canvas&gt; 会作为文字保留
func nodeText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	raw, err := sel.Html()
	if err != nil {
		return cleanText(sel.Text())
	}
	return cleanText(html.UnescapeString(textPolicy.Sanitize(raw)))
}

// cleanText 压缩空白
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveLink 将相对链接转换为绝对地址；无法得到 http(s) 绝对地址时返回空串
func resolveLink(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	if ref.Host == "" {
		return ""
	}
	return ref.String()
}

// truncateRunes 按 rune 截断，避免把多字节字符切成半个
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return strings.TrimSpace(string(rs[:limit]))
}
