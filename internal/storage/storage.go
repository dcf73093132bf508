package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Storage is the interface for all export backends.
type Storage interface {
	// Store persists a batch of records.
	Store(records []*types.TopicStats) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// NewFromConfig builds one backend per entry of output.formats. File
// formats share output.path with the extension swapped per format. A
// single backend is returned as is; several are wrapped in a MultiStorage.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Storage, error) {
	backends := make([]Storage, 0, len(cfg.Output.Formats))
	closeAll := func() {
		for _, b := range backends {
			b.Close()
		}
	}

	for _, format := range cfg.Output.Formats {
		format = strings.ToLower(strings.TrimSpace(format))

		var (
			backend Storage
			err     error
		)
		switch format {
		case "csv":
			backend, err = NewCSVStorage(PathFor(cfg.Output.Path, "csv"), cfg.Output, logger)
		case "xlsx":
			backend, err = NewXLSXStorage(PathFor(cfg.Output.Path, "xlsx"), cfg.Output, logger)
		case "json":
			backend, err = NewJSONStorage(PathFor(cfg.Output.Path, "json"), logger)
		case "jsonl":
			backend, err = NewJSONLStorage(PathFor(cfg.Output.Path, "jsonl"), logger)
		case "mongodb":
			backend, err = NewMongoStorage(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		default:
			err = fmt.Errorf("unsupported output format: %s", format)
		}
		if err != nil {
			closeAll()
			return nil, &types.StorageError{Backend: format, Err: err}
		}
		backends = append(backends, backend)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no output formats configured")
	case 1:
		return backends[0], nil
	default:
		return NewMultiStorage(backends, logger), nil
	}
}

// PathFor returns base with its extension replaced by ext, unless base
// already ends in ext.
func PathFor(base, ext string) string {
	current := filepath.Ext(base)
	if strings.EqualFold(strings.TrimPrefix(current, "."), ext) {
		return base
	}
	return strings.TrimSuffix(base, current) + "." + ext
}
