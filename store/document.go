package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/storekit/adminagent/logger"
)

// Document is the serialized form of one collection: a versioned envelope
// around the record array. Version increments on every persisted write.
type Document[T any] struct {
	Version      int       `json:"version"`
	LastModified time.Time `json:"lastModified"`
	Data         []T       `json:"data"`
}

// readDocument loads a collection document from path. A missing or
// malformed document is treated as an empty collection (log-and-default),
// never an error: only genuine I/O failures propagate.
func readDocument[T any](path string) (Document[T], error) {
	var doc Document[T]

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("collection document missing, treating as empty", "path", path)
			return Document[T]{Version: 0, Data: nil}, nil
		}
		return doc, fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("collection document malformed, treating as empty", "path", path, "error", err)
		return Document[T]{Version: 0, Data: nil}, nil
	}
	return doc, nil
}

// writeDocument persists a collection document atomically: it writes to a
// temp file in the same directory and renames over the target.
func writeDocument[T any](path string, doc Document[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".doc-*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// copyFile duplicates src to dst, creating parent directories as needed.
// Used for the one-time seed-to-working copy.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write working %s: %w", dst, err)
	}
	return nil
}
