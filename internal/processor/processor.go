package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/LJTian/AIDaily/internal/collector"
)

// SimilarityThreshold 标题词重叠率超过该值视为重复
const SimilarityThreshold = 0.7

// 非字母数字、非空白字符全部去掉；按 Unicode 判断，中文标题不会被清空
var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// NormalizeTitle 小写 + 去标点 + 去首尾空白
func NormalizeTitle(title string) string {
	return strings.TrimSpace(nonWordRe.ReplaceAllString(strings.ToLower(title), ""))
}

// Similarity 返回 |交集| / max(|a|, |b|)，两个词集都为空时为 0
func Similarity(a, b string) float64 {
	return overlap(tokenSet(a), tokenSet(b))
}

func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	return float64(inter) / float64(n)
}

// Dedupe 去掉标题高度相似的文章，先出现的保留，输出保持输入顺序。
// 用倒排索引只比较至少共享一个词的已保留标题，结果与逐一比较完全一致；
// 复杂度仍随文章数平方增长，只适合每轮几百条的规模。
func Dedupe(articles []collector.Article) []collector.Article {
	out := make([]collector.Article, 0, len(articles))
	var accepted []map[string]struct{}
	index := make(map[string][]int) // token -> accepted 下标

	for _, a := range articles {
		tokens := tokenSet(NormalizeTitle(a.Title))
		if isDuplicate(tokens, accepted, index) {
			continue
		}
		id := len(accepted)
		accepted = append(accepted, tokens)
		for tok := range tokens {
			index[tok] = append(index[tok], id)
		}
		out = append(out, a)
	}
	return out
}

func isDuplicate(tokens map[string]struct{}, accepted []map[string]struct{}, index map[string][]int) bool {
	checked := make(map[int]struct{})
	for tok := range tokens {
		for _, id := range index[tok] {
			if _, done := checked[id]; done {
				continue
			}
			checked[id] = struct{}{}
			if overlap(tokens, accepted[id]) > SimilarityThreshold {
				return true
			}
		}
	}
	return false
}

// Top 取前 n 条，n <= 0 时返回空
func Top(articles []collector.Article, n int) []collector.Article {
	if n <= 0 {
		return nil
	}
	if len(articles) <= n {
		return articles
	}
	return articles[:n]
}

// HashLink 以链接生成稳定 ID，存储层用作主键
func HashLink(link string) string {
	h := sha1.New()
	h.Write([]byte(link))
	return hex.EncodeToString(h.Sum(nil))
}
