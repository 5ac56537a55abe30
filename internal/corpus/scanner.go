// Package corpus loads retrievable documents from a directory tree.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Scan walks root recursively and returns the trimmed content of every
// recognized document, ordered by sorted, deduplicated file path so that
// rebuilding from the same directory yields the same document order. Files
// that cannot be read or extracted are logged and skipped; empty documents
// are discarded. A missing root is not an error: it yields an empty corpus.
func Scan(root string, extensions []string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		logger.Warn("corpus root does not exist", zap.String("root", root))
		return nil, nil
	}

	seen := make(map[string]bool)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("corpus scan error, skipping", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan corpus root: %w", err)
	}
	sort.Strings(paths)

	var texts []string
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable corpus file", zap.String("path", path), zap.Error(err))
			continue
		}
		text, err := extractBytes(content, filepath.Ext(path))
		if err != nil {
			logger.Warn("skipping unextractable corpus file", zap.String("path", path), zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	logger.Info("corpus scanned", zap.String("root", root), zap.Int("documents", len(texts)))
	return texts, nil
}
