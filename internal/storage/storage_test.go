package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/AIDaily/internal/collector"
	"github.com/LJTian/AIDaily/internal/report"
)

func digestAt(day int, titles ...string) report.Digest {
	d := report.Digest{
		GeneratedAt: time.Date(2025, 1, day, 1, 0, 0, 0, time.UTC),
		Scanned:     len(titles),
		SourceCount: 2,
	}
	for i, title := range titles {
		src := "A"
		if i%2 == 1 {
			src = "B"
		}
		d.All = append(d.All, collector.Article{
			Source: src,
			Title:  title,
			Link:   "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
			Date:   "Recent",
		})
	}
	d.Top = d.All[:min(1, len(d.All))]
	return d
}

func TestTruncateRunesDB(t *testing.T) {
	assert.Equal(t, "", truncateRunesDB("abc", 0))
	assert.Equal(t, "abc", truncateRunesDB("  abc  ", 10))
	assert.Equal(t, "人工", truncateRunesDB("人工智能", 2))
}

func TestToValidUTF8(t *testing.T) {
	assert.Equal(t, "a�b", toValidUTF8("a\xffb"))
	assert.Equal(t, "正常", toValidUTF8("正常"))
}

func TestToRows(t *testing.T) {
	rows := toRows(digestAt(2, "first post", "second post", "third post"))
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-01-02", rows[0].DigestDate)
	assert.Equal(t, 1, rows[0].Rank)
	assert.True(t, rows[0].Top)
	assert.False(t, rows[1].Top)
	assert.Equal(t, "B", rows[1].Source)
	assert.Len(t, rows[0].ID, 40)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)

	// 同一链接在不同日期对应不同主键
	other := toRows(digestAt(3, "first post"))
	assert.NotEqual(t, rows[0].ID, other[0].ID)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	_, err := m.HTMLByDate(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
	list, err := m.ListArticles(ctx, ArticleQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, m.SaveDigest(ctx, digestAt(1, "day one"), []byte("<p>1</p>")))
	require.NoError(t, m.SaveDigest(ctx, digestAt(2, "day two a", "day two b"), []byte("<p>2</p>")))

	html, err := m.LatestHTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<p>2</p>", string(html))

	html, err = m.HTMLByDate(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "<p>1</p>", string(html))

	list, err = m.ListArticles(ctx, ArticleQuery{Source: "B"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "day two b", list[0].Title)

	list, err = m.ListArticles(ctx, ArticleQuery{Date: "2025-01-02", Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "day two a", list[0].Title)

	// 超出保留天数时淘汰最旧的一天
	require.NoError(t, m.SaveDigest(ctx, digestAt(3, "day three"), []byte("<p>3</p>")))
	dates, err := m.ListDates(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-03", "2025-01-02"}, dates)
	_, err = m.HTMLByDate(ctx, "2025-01-01")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOverwritesSameDay(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.SaveDigest(ctx, digestAt(5, "old"), []byte("old")))
	require.NoError(t, m.SaveDigest(ctx, digestAt(5, "new"), []byte("new")))

	html, err := m.HTMLByDate(ctx, "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, "new", string(html))
	list, err := m.ListArticles(ctx, ArticleQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Title)
}
