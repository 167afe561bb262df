package adapters

import (
	"context"
	"fmt"
	"os"
	"time"

	"clipsleuth/config"
	"clipsleuth/entry"

	"github.com/djherbis/times"
	"github.com/h2non/filetype"
)

// FileAdapter ingests a flat-file clipboard store as a single entry.
// Plain-text managers and .ini-style history files land here. The entry
// timestamp comes from the file's birth time when the filesystem records
// one, otherwise its modification time.
type FileAdapter struct {
	name         string
	path         string
	previewLimit int
}

func NewFileAdapter(name, path string, cfg *config.Config) *FileAdapter {
	return &FileAdapter{
		name:         name,
		path:         path,
		previewLimit: cfg.PreviewLimit,
	}
}

func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) Extract(ctx context.Context) ([]*entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", a.path, err)
	}

	e := entry.New(storeTimestamp(a.path), sniffContentType(data), string(data), a.previewLimit)
	e.SourceApp = a.name
	e.Metadata["store_path"] = a.path
	return []*entry.Entry{e}, nil
}

func storeTimestamp(path string) string {
	ts, err := times.Stat(path)
	if err != nil {
		return entry.FormatTimestamp(time.Now())
	}
	if ts.HasBirthTime() {
		return entry.FormatTimestamp(ts.BirthTime())
	}
	return entry.FormatTimestamp(ts.ModTime())
}

// sniffContentType classifies the payload by magic bytes, falling back
// to text for anything unrecognized.
func sniffContentType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return entry.TypeText
	}
	if kind.MIME.Type == "image" {
		return entry.TypeImage
	}
	return entry.TypeFile
}
