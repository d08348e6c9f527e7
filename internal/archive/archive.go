// Package archive compacts the raw artifact store after a successful feed
// build: each stage directory is zipped and removed, and stray top-level
// JSON files are deleted. It must never run when synthesis or validation
// failed, since the uncompressed artifacts are what a retry resumes from.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CompactRaw zips and removes every subdirectory of the raw root, and
// deletes leftover top-level JSON files
func CompactRaw(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read raw directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			zipPath := filepath.Join(root, entry.Name()+".zip")
			if err := zipDirectory(filepath.Join(root, entry.Name()), zipPath); err != nil {
				return fmt.Errorf("failed to compress %s: %w", entry.Name(), err)
			}
			if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
			log.Printf("Archive: compressed %s into %s", entry.Name(), zipPath)
			continue
		}

		if strings.HasSuffix(entry.Name(), ".json") {
			if err := os.Remove(filepath.Join(root, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
		}
	}

	return nil
}

// zipDirectory writes the directory's files into a deflate-compressed zip,
// with paths relative to the directory itself
func zipDirectory(dir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}
