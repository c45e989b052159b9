package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LJTian/AIDaily/internal/processor"
	"github.com/LJTian/AIDaily/internal/report"
)

// ErrNotFound 指定日期没有日报
var ErrNotFound = errors.New("digest not found")

const (
	htmlCacheTTL = time.Hour
	listCacheTTL = 5 * time.Minute

	latestKey = "latest"
)

// Digest 每天一份日报，重复生成时覆盖
type Digest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"size:10;uniqueIndex" json:"date"` // 东八区日期 YYYY-MM-DD
	GeneratedAt time.Time `gorm:"index" json:"generatedAt"`
	Scanned     int       `json:"scanned"`
	SourceCount int       `json:"sourceCount"`
	TopCount    int       `json:"topCount"`
	HTML        string    `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Article 日报中的一条文章
type Article struct {
	ID         string            `gorm:"primaryKey;size:40" json:"id"`
	DigestDate string            `gorm:"size:10;index" json:"digestDate"`
	Source     string            `gorm:"size:128;index" json:"source"`
	Title      string            `gorm:"size:512" json:"title"`
	Link       string            `gorm:"size:1024" json:"link"`
	DateText   string            `gorm:"size:64" json:"date"`
	Summary    string            `gorm:"size:600" json:"summary"`
	Rank       int               `gorm:"index" json:"rank"`
	Top        bool              `json:"top"`
	ExtraData  datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
}

// ArticleQuery 文章列表的筛选条件，Date 为空时取最新一期
type ArticleQuery struct {
	Date   string
	Source string
	Limit  int
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore redisAddr 为空时不使用缓存
func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&Digest{}, &Article{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	s := &Store{DB: db}
	if redisAddr != "" {
		s.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			lgr.Printf("[WARN] redis ping failed: %v", err)
		}
	}
	return s, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断，确保不会超过字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// toRows 把日报转换为入库行；All 中排在前面的 TopCount 条即精选
func toRows(d report.Digest) []Article {
	date := d.Date()
	rows := make([]Article, 0, len(d.All))
	for i, a := range d.All {
		link := toValidUTF8(a.Link)
		rows = append(rows, Article{
			ID:         processor.HashLink(date + "|" + link),
			DigestDate: date,
			Source:     truncateRunesDB(toValidUTF8(a.Source), 128),
			Title:      truncateRunesDB(toValidUTF8(a.Title), 512),
			Link:       truncateRunesDB(link, 1024),
			DateText:   truncateRunesDB(toValidUTF8(a.Date), 64),
			Summary:    truncateRunesDB(toValidUTF8(a.Summary), 600),
			Rank:       i + 1,
			Top:        i < len(d.Top),
			ExtraData:  datatypes.JSONMap{"generated_at": d.GeneratedAt.Unix()},
		})
	}
	return rows
}

// SaveDigest 按日期覆盖当天的日报和文章，并刷新页面缓存
func (s *Store) SaveDigest(ctx context.Context, d report.Digest, html []byte) error {
	date := d.Date()
	rows := toRows(d)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Digest{
			Date:        date,
			GeneratedAt: d.GeneratedAt,
			Scanned:     d.Scanned,
			SourceCount: d.SourceCount,
			TopCount:    len(d.Top),
			HTML:        string(html),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"generated_at", "scanned", "source_count", "top_count", "html", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert digest: %w", err)
		}

		if err := tx.Where("digest_date = ?", date).Delete(&Article{}).Error; err != nil {
			return fmt.Errorf("clear articles: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		// 同一期里可能出现相同链接，按主键忽略重复
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 这里不做按 key 通配删除，列表缓存依赖短 TTL 自然过期
	if s.Redis != nil {
		for _, key := range []string{htmlKey(date), htmlKey(latestKey)} {
			if err := s.Redis.Set(ctx, key, html, htmlCacheTTL).Err(); err != nil {
				lgr.Printf("[WARN] cache %s: %v", key, err)
			}
		}
	}
	lgr.Printf("[INFO] digest %s saved, articles=%d", date, len(rows))
	return nil
}

func htmlKey(date string) string {
	return "daily:html:" + date
}

// LatestHTML 最新一期日报页面
func (s *Store) LatestHTML(ctx context.Context) ([]byte, error) {
	return s.HTMLByDate(ctx, "")
}

// HTMLByDate 返回某天渲染好的页面；date 为空时返回最新一期
func (s *Store) HTMLByDate(ctx context.Context, date string) ([]byte, error) {
	key := date
	if key == "" {
		key = latestKey
	}
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, htmlKey(key)).Bytes(); err == nil {
			return bs, nil
		}
	}

	var row Digest
	q := s.DB.WithContext(ctx).Model(&Digest{})
	if date != "" {
		q = q.Where("date = ?", date)
	}
	if err := q.Order("date DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, htmlKey(key), row.HTML, htmlCacheTTL).Err()
	}
	return []byte(row.HTML), nil
}

// ListArticles 按日期/来源返回文章，结果缓存 5 分钟
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) ([]Article, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 50
	}
	cacheKey := fmt.Sprintf("daily:articles:%s:%s:%d", q.Date, q.Source, q.Limit)
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	date := q.Date
	if date == "" {
		var latest Digest
		err := s.DB.WithContext(ctx).Order("date DESC").First(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []Article{}, nil
		}
		if err != nil {
			return nil, err
		}
		date = latest.Date
	}

	db := s.DB.WithContext(ctx).Model(&Article{}).Where("digest_date = ?", date)
	if q.Source != "" {
		db = db.Where("source = ?", q.Source)
	}
	var list []Article
	if err := db.Order("rank ASC").Limit(q.Limit).Find(&list).Error; err != nil {
		return nil, err
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

// ListDates 返回有日报的日期（倒序）
func (s *Store) ListDates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > 365 {
		limit = 31
	}
	var dates []string
	err := s.DB.WithContext(ctx).Model(&Digest{}).Order("date DESC").Limit(limit).Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}
