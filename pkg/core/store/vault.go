package store

import (
	"context"
	"errors"
	"fmt"

	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// Vault layers the stores: memory first, then the database when configured,
// then the file cache. Saves go to every configured layer.
type Vault struct {
	Memory *MemoryCache
	DB     ReportStore
	Files  *FileCache
}

var _ ReportStore = (*Vault)(nil)

func (v *Vault) layers() []ReportStore {
	var out []ReportStore
	if v.Memory != nil {
		out = append(out, v.Memory)
	}
	if v.DB != nil {
		out = append(out, v.DB)
	}
	if v.Files != nil {
		out = append(out, v.Files)
	}
	return out
}

// Save fails only when every persistent layer fails.
func (v *Vault) Save(ctx context.Context, report *models.StoredReport) error {
	var errs []error
	persisted := false
	for _, s := range v.layers() {
		if err := s.Save(ctx, report); err != nil {
			logger.L.Warn().Err(err).Str("report_id", report.ID).Msgf("[STORE] save to %T failed", s)
			errs = append(errs, err)
			continue
		}
		if _, mem := s.(*MemoryCache); !mem {
			persisted = true
		}
	}
	if !persisted && (v.DB != nil || v.Files != nil) {
		return fmt.Errorf("STORE_SAVE_FAILED: %w", errors.Join(errs...))
	}
	return nil
}

// Load returns the first hit. A database hit warms the memory layer.
func (v *Vault) Load(ctx context.Context, id string) (*models.StoredReport, error) {
	for _, s := range v.layers() {
		rep, err := s.Load(ctx, id)
		if err == nil {
			if _, mem := s.(*MemoryCache); !mem && v.Memory != nil {
				v.Memory.Save(ctx, rep)
			}
			return rep, nil
		}
		if !errors.Is(err, ErrNotFound) {
			logger.L.Warn().Err(err).Str("report_id", id).Msgf("[STORE] load from %T failed", s)
		}
	}
	return nil, ErrNotFound
}
