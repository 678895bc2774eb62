package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/huiapp/huiauth/store"
)

// DefaultTTL is how long a cached setting is trusted.
const DefaultTTL = 5 * time.Minute

// ErrInvalidSetting is returned by CreateSetting for incomplete rows.
var ErrInvalidSetting = errors.New("settings: id, category and key are required")

// Option configures a [Service].
type Option func(*Service)

// WithCache replaces the default in-process cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithTTL sets the cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service reads settings through a cache and invalidates on write. Cache
// failures degrade to store reads.
type Service struct {
	store  store.SettingStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds a settings service over st.
func NewService(st store.SettingStore, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  NewTTLCache(nil),
		ttl:    DefaultTTL,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CategoryKey is the cache key for a category listing.
func CategoryKey(category string) string {
	return "category_" + category
}

// GetSetting returns one row by id, or [store.ErrNotFound].
func (s *Service) GetSetting(ctx context.Context, id string) (*store.Setting, error) {
	var cached store.Setting
	if s.fromCache(ctx, id, &cached) {
		return &cached, nil
	}

	row, err := s.store.FindSetting(ctx, id)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, id, row)
	return row, nil
}

// GetSettingsByCategory returns key → value for every row in category.
// An unknown category is an empty map.
func (s *Service) GetSettingsByCategory(ctx context.Context, category string) (map[string]any, error) {
	key := CategoryKey(category)

	var cached map[string]any
	if s.fromCache(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	rows, err := s.store.FindSettingsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	s.toCache(ctx, key, out)
	return out, nil
}

// GetSettingByKey finds the row with the given category and key.
func (s *Service) GetSettingByKey(ctx context.Context, category, key string) (*store.Setting, error) {
	return s.GetSetting(ctx, SettingID(category, key))
}

// UpdateSetting replaces a row's value and invalidates its id and category
// cache entries.
func (s *Service) UpdateSetting(ctx context.Context, id string, value any) (*store.Setting, error) {
	row, err := s.store.UpdateSettingValue(ctx, id, value)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id, CategoryKey(row.Category))
	return row, nil
}

// CreateSetting inserts a new row and invalidates its cache entries.
func (s *Service) CreateSetting(ctx context.Context, row store.Setting) (*store.Setting, error) {
	if row.ID == "" || row.Category == "" || row.Key == "" {
		return nil, ErrInvalidSetting
	}
	created, err := s.store.CreateSetting(ctx, row)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.ID, CategoryKey(created.Category))
	return created, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "settings cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.WarnContext(ctx, "settings cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) toCache(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "settings cache write failed", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "settings cache invalidation failed", "keys", keys, "error", err)
	}
}

// SettingID builds the conventional id "<category>_<snake_key>" used by
// the seeded rows, e.g. ("password", "minLength") → "password_min_length".
func SettingID(category, key string) string {
	var b strings.Builder
	b.Grow(len(category) + len(key) + 4)
	b.WriteString(category)
	b.WriteByte('_')
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
