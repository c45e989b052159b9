package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-pkgz/lgr"
)

const (
	translateMaxResponseBytes = 256 * 1024
	translateMaxLen           = 500
	translateTimeout          = 20 * time.Second

	googleTranslateURL   = "https://translate.googleapis.com/translate_a/single"
	myMemoryTranslateURL = "https://api.mymemory.translated.net/get"
)

// Translator 把英文标题/摘要翻译为中文；默认关闭，失败时原样返回
type Translator struct {
	APIKey string // 可选，转给 MyMemory 的 key 参数以提高配额

	client      *http.Client
	googleURL   string
	myMemoryURL string
}

func NewTranslator(apiKey string) *Translator {
	return &Translator{
		APIKey:      apiKey,
		client:      &http.Client{Timeout: translateTimeout},
		googleURL:   googleTranslateURL,
		myMemoryURL: myMemoryTranslateURL,
	}
}

// Translate 依次尝试 Google gtx → MyMemory，都失败时返回原文
func (t *Translator) Translate(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || isMostlyChinese(text) {
		return text
	}
	if rs := []rune(text); len(rs) > translateMaxLen {
		text = string(rs[:translateMaxLen])
	}

	if out, err := t.viaGoogle(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		lgr.Printf("[DEBUG] translate (google-gtx): %v", err)
	}

	if out, err := t.viaMyMemory(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		lgr.Printf("[DEBUG] translate (mymemory): %v", err)
	}

	return text
}

// TranslateArticles 翻译标题和摘要，返回新的切片；译文摘要同样截断到 SummaryLimit
func (t *Translator) TranslateArticles(ctx context.Context, in []Article) []Article {
	out := make([]Article, len(in))
	for i, a := range in {
		if ctx.Err() != nil {
			copy(out[i:], in[i:])
			break
		}
		a.Title = t.Translate(ctx, a.Title)
		a.Summary = truncateRunes(t.Translate(ctx, a.Summary), SummaryLimit)
		out[i] = a
	}
	return out
}

func (t *Translator) get(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: apiURL, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, translateMaxResponseBytes))
}

// viaGoogle 使用公开的 client=gtx 接口，响应形如 [[["译文","原文",...],...],...]
func (t *Translator) viaGoogle(ctx context.Context, text string) (string, error) {
	q := url.Values{"client": {"gtx"}, "sl": {"auto"}, "tl": {"zh-CN"}, "dt": {"t"}, "q": {text}}
	body, err := t.get(ctx, t.googleURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	outer, ok := raw[0].([]any)
	if !ok {
		return "", nil
	}
	var sb strings.Builder
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (t *Translator) viaMyMemory(ctx context.Context, text string) (string, error) {
	q := url.Values{"langpair": {sourceLang(text) + "|zh"}, "q": {text}}
	if t.APIKey != "" {
		q.Set("key", t.APIKey)
	}
	body, err := t.get(ctx, t.myMemoryURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}
	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}

func isMostlyChinese(s string) bool {
	var cjk, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if total == 0 {
		return true
	}
	return cjk >= 1 && (cjk*4 >= total || cjk >= 2)
}

func sourceLang(s string) string {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return "ja"
		}
	}
	return "en"
}
