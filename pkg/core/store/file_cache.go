package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// FileCache keeps reports as JSON files in a local directory. It serves as
// the store when no database is configured.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates the directory if needed. A zero ttl never expires.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join("data", "reports")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func (c *FileCache) path(id string) (string, error) {
	if !safeID.MatchString(id) {
		return "", fmt.Errorf("REPORT_ID_INVALID: %q", id)
	}
	return filepath.Join(c.dir, id+".json"), nil
}

// Save writes the report, replacing any previous file with the same id.
func (c *FileCache) Save(_ context.Context, report *models.StoredReport) error {
	path, err := c.path(report.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	return nil
}

// Load reads one report. Expired entries are reported as ErrNotFound.
func (c *FileCache) Load(_ context.Context, id string) (*models.StoredReport, error) {
	path, err := c.path(id)
	if err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}
	var rep models.StoredReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	if c.expired(rep.CreatedAt, time.Now()) {
		return nil, ErrNotFound
	}
	return &rep, nil
}

func (c *FileCache) expired(created, now time.Time) bool {
	return c.ttl > 0 && !created.IsZero() && now.Sub(created) > c.ttl
}

// Purge removes entries older than the ttl and returns how many went.
func (c *FileCache) Purge(now time.Time) (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list report cache: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= c.ttl {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			logger.L.Warn().Err(err).Str("file", e.Name()).Msg("[STORE] purge failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.L.Info().Int("removed", removed).Str("dir", c.dir).Msg("[STORE] purged expired reports")
	}
	return removed, nil
}
