package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/damoang/angple-wiki/internal/pipeline"
	"github.com/damoang/angple-wiki/pkg/cache"
	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"github.com/rs/zerolog"
)

// cachedRenderer memoizes rendered documents by source hash
type cachedRenderer struct {
	next   Renderer
	cache  cache.Service
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedRenderer wraps next with a render cache. Entries expire after
// ttl so changes in link targets show up without explicit invalidation.
func NewCachedRenderer(next Renderer, c cache.Service, ttl time.Duration) Renderer {
	if c == nil || !c.IsAvailable() {
		return next
	}
	if ttl <= 0 {
		ttl = cache.TTLRender
	}
	return &cachedRenderer{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: pkglogger.WithComponent("render-cache"),
	}
}

func renderKey(source string) string {
	sum := sha1.Sum([]byte(source))
	return cache.PrefixRender + hex.EncodeToString(sum[:])
}

func (r *cachedRenderer) Render(ctx context.Context, source string) (*pipeline.Document, error) {
	key := renderKey(source)

	var doc pipeline.Document
	err := r.cache.Get(ctx, key, &doc)
	if err == nil {
		return &doc, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Debug().Err(err).Msg("render cache read failed")
	}

	rendered, err := r.next.Render(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, rendered, r.ttl); err != nil {
		r.logger.Debug().Err(err).Msg("render cache write failed")
	}
	return rendered, nil
}
