package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/cache"
	"dormweb/pkg/logging"
	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

const (
	DefaultNewsTTL      = 600 * time.Second
	DefaultPostPageSize = 10

	keyCategories = "posts:categories"
	keyRecent     = "posts:recent"
	keyPostPage   = "posts:page:%d:%d"
	keyPostSlug   = "posts:slug:%s"
)

type PostPage struct {
	Posts []models.Post
	Meta  models.PageMeta
}

// PostService serves the news section. Responses are cached for ttl since
// published posts change rarely.
type PostService struct {
	client *api.Client
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewPostService(client *api.Client, c cache.Cache, ttl time.Duration, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = logging.Discard()
	}
	if c == nil {
		c = cache.NewMemory()
	}
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	return &PostService{client: client, cache: c, ttl: ttl, logger: logger.With(slog.String("component", "post"))}
}

func (s *PostService) fetch(ctx context.Context, key, op string, load func() (json.RawMessage, error)) (mapper.Envelope, error) {
	raw, err := cache.Fetch(ctx, s.cache, s.logger, key, s.ttl, func() ([]byte, error) {
		return load()
	})
	if err != nil {
		return mapper.Envelope{}, apperrors.Translate(err, "Post", op)
	}
	return mapper.DecodeEnvelope(raw), nil
}

func (s *PostService) Categories(ctx context.Context) ([]models.PostCategory, error) {
	env, err := s.fetch(ctx, keyCategories, "fetching post categories", func() (json.RawMessage, error) {
		return s.client.GetPostCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	// some deployments answer with the whole sidebar: {categories, recentPosts}
	if first := env.First(); first != nil && first.List("categories") != nil && first.Str("slug") == "" {
		out := []models.PostCategory{}
		for _, item := range first.List("categories") {
			if m, ok := item.(map[string]any); ok {
				out = append(out, mapper.MapPostCategory(m))
			}
		}
		return out, nil
	}
	return mapper.MapPostCategories(env), nil
}

func (s *PostService) Recent(ctx context.Context) ([]models.Post, error) {
	env, err := s.fetch(ctx, keyRecent, "fetching recent posts", func() (json.RawMessage, error) {
		return s.client.GetRecentPosts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return mapper.MapPosts(env), nil
}

func (s *PostService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPostPageSize
	}
	env, err := s.fetch(ctx, fmt.Sprintf(keyPostPage, page, limit), "fetching posts", func() (json.RawMessage, error) {
		return s.client.GetPosts(ctx, page, limit)
	})
	if err != nil {
		return nil, err
	}
	out := &PostPage{Posts: mapper.MapPosts(env), Meta: models.PageMeta{Page: page, Limit: limit}}
	if m := env.Meta(); m != nil {
		out.Meta = *m
	}
	if out.Meta.TotalPages == 0 {
		out.Meta.TotalPages = 1
	}
	return out, nil
}

func (s *PostService) BySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := requireID(slug, "Post slug is required"); err != nil {
		return nil, err
	}
	env, err := s.fetch(ctx, fmt.Sprintf(keyPostSlug, slug), "fetching post "+slug, func() (json.RawMessage, error) {
		return s.client.GetPostBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	record := env.First()
	if record == nil {
		return nil, apperrors.NotFound("Post", slug)
	}
	p := mapper.MapPost(record)
	return &p, nil
}
