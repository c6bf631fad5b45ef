package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"financial_report/pkg/models"
)

// MemoryCache holds recently processed reports in process.
type MemoryCache struct {
	c *cache.Cache
}

// NewMemoryCache returns a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) Save(_ context.Context, report *models.StoredReport) error {
	m.c.Set(report.ID, report, cache.DefaultExpiration)
	return nil
}

func (m *MemoryCache) Load(_ context.Context, id string) (*models.StoredReport, error) {
	if v, found := m.c.Get(id); found {
		return v.(*models.StoredReport), nil
	}
	return nil, ErrNotFound
}

// Len is the number of unexpired entries.
func (m *MemoryCache) Len() int { return m.c.ItemCount() }
