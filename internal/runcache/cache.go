package runcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/model"
)

// Record is a finished run as reported to HTTP clients.
type Record struct {
	RunID   string           `json:"run_id"`
	Summary *model.Summary   `json:"summary"`
	Logs    []model.LogEntry `json:"logs"`
	Error   string           `json:"error,omitempty"`
}

// Cache keeps recent run records in memory; nothing is written to disk.
type Cache struct {
	lru *expirable.LRU[string, *Record]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}
	return &Cache{lru: expirable.NewLRU[string, *Record](size, nil, ttl)}
}

func (c *Cache) Put(ctx context.Context, rec *Record) {
	if rec == nil || rec.RunID == "" {
		return
	}
	c.lru.Add(rec.RunID, rec)
	logutil.GetLogger(ctx).Debug("run cached", zap.String("run_id", rec.RunID), zap.Int("cached", c.lru.Len()))
}

func (c *Cache) Get(runID string) (*Record, bool) {
	return c.lru.Get(runID)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
