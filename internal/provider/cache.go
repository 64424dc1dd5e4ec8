package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sells-group/contract-review/internal/model"
)

// CachedProvider memoizes successful extractions so that re-running a
// project does not repeat identical model calls. Errors are never cached.
type CachedProvider struct {
	inner Provider
	cache *gocache.Cache
}

// NewCached wraps a provider with an in-memory TTL cache.
func NewCached(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) Extract(ctx context.Context, req Request) (model.Candidate, error) {
	key := cacheKey(p.inner.Name(), req)
	if hit, ok := p.cache.Get(key); ok {
		return hit.(model.Candidate), nil
	}

	cand, err := p.inner.Extract(ctx, req)
	if err != nil {
		return model.Candidate{}, err
	}
	p.cache.Set(key, cand, gocache.DefaultExpiration)
	return cand, nil
}

func cacheKey(name string, req Request) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(req.FieldName))
	h.Write([]byte{0})
	h.Write([]byte(string(req.FieldType)))
	h.Write([]byte{0})
	h.Write([]byte(req.Excerpt))
	return hex.EncodeToString(h.Sum(nil))
}
