package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clipsleuth/entry"
	"clipsleuth/logger"
)

// DumpAdapter re-ingests entries from a previously written report or a
// bare JSON array of entry objects. Content hashes present in the dump
// are preserved, so identity survives save and reload.
type DumpAdapter struct {
	path string
}

func NewDumpAdapter(path string) *DumpAdapter {
	return &DumpAdapter{path: path}
}

func (a *DumpAdapter) Name() string {
	return filepath.Base(a.path)
}

func (a *DumpAdapter) Extract(ctx context.Context) ([]*entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", a.path, err)
	}

	records, err := decodeDump(data)
	if err != nil {
		return nil, fmt.Errorf("parse dump %s: %w", a.path, err)
	}

	entries := make([]*entry.Entry, 0, len(records))
	for i, record := range records {
		row, ok := record.(map[string]interface{})
		if !ok {
			logger.Debugf("Dump %s entry %d is not an object, skipping", a.path, i)
			continue
		}
		entries = append(entries, entry.FromMap(row))
	}
	return entries, nil
}

// decodeDump accepts either a full report document or a bare entry array.
func decodeDump(data []byte) ([]interface{}, error) {
	var report struct {
		Entries []interface{} `json:"entries"`
	}
	if err := json.Unmarshal(data, &report); err == nil && report.Entries != nil {
		return report.Entries, nil
	}

	var records []interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
