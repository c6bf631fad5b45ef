package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"financial_report/pkg/logger"
)

// LoadFromDirectory overlays baseDir/prompts onto the global registry.
//
//	baseDir/
//	  prompts/
//	    kreditlab/
//	      transform.yaml        -> kreditlab.transform
//	      transform_retry.json  -> kreditlab.transform_retry
func LoadFromDirectory(baseDir string) error {
	return Get().LoadDirectory(baseDir)
}

// LoadDirectory registers every .json, .yaml and .yml file below
// baseDir/prompts. A file that cannot be read, decoded or compiled is
// skipped; its error is returned joined with the others once the walk ends.
func (r *Registry) LoadDirectory(baseDir string) error {
	dir := filepath.Join(baseDir, "prompts")
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("PROMPT_DIR_NOT_FOUND: %s", dir)
	}

	loaded := 0
	var errs []error
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPromptFile(path) {
			return nil
		}
		t, err := decodeFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if t.ID == "" {
			t.ID = idFromPath(dir, path)
		}
		if t.Category == "" {
			t.Category = categoryFromPath(dir, path)
		}
		if err := r.Register(t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		loaded++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	logger.L.Info().Int("loaded", loaded).Int("rejected", len(errs)).Str("dir", dir).Msg("[PROMPT] Prompt files applied")
	return errors.Join(errs...)
}

func isPromptFile(path string) bool {
	switch filepath.Ext(path) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var t Template
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &t)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &t, nil
}

// idFromPath maps "kreditlab/transform.yaml" to "kreditlab.transform".
func idFromPath(dir, path string) string {
	rel, _ := filepath.Rel(dir, path)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}

func categoryFromPath(dir, path string) string {
	rel, _ := filepath.Rel(dir, path)
	if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
		return parts[0]
	}
	return "default"
}
