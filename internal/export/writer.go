// Package export persists run outputs: JSON snapshots of resolved objects
// and listings, and downloaded file content. Every file is written to a temp
// file in the target directory and renamed into place, so a failed run never
// leaves a partial file at the final path. Existing files are overwritten.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output file names.
const (
	SiteFile          = "site.json"
	RootListingFile   = "response_root.json"
	FolderListingFile = "response_child.json"
	FileInfoFile      = "file_info.json"
	UsersFile         = "entra_users.json"
	SDKUsersFile      = "sdk_users.json"
)

const (
	filePerms = 0o644
	dirPerms  = 0o755
)

var errBadName = errors.New("export: name must be a plain file name")

// DownloadResult describes a file saved by SaveDownload.
type DownloadResult struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// Writer writes outputs under two directories. Directories are created on
// first write.
type Writer struct {
	jsonDir     string
	downloadDir string
	logger      *slog.Logger
}

// NewWriter returns a Writer for the given directories.
func NewWriter(jsonDir, downloadDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{jsonDir: jsonDir, downloadDir: downloadDir, logger: logger}
}

// WriteJSON writes v as indented JSON to name in the JSON directory and
// returns the final path.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encoding %s: %w", name, err)
	}

	data = append(data, '\n')

	path, n, err := writeAtomic(w.jsonDir, name, func(f io.Writer) (int64, error) {
		written, werr := f.Write(data)
		return int64(written), werr
	})
	if err != nil {
		return "", err
	}

	w.logger.Info("wrote json",
		slog.String("path", path),
		slog.Int64("bytes", n),
	)

	return path, nil
}

// SaveDownload streams content from fetch into name in the download
// directory. If fetch fails nothing is left at the final path.
func (w *Writer) SaveDownload(name string, fetch func(io.Writer) (int64, error)) (*DownloadResult, error) {
	path, n, err := writeAtomic(w.downloadDir, name, fetch)
	if err != nil {
		return nil, err
	}

	w.logger.Info("saved download",
		slog.String("path", path),
		slog.Int64("bytes", n),
	)

	return &DownloadResult{Path: path, Bytes: n}, nil
}

// writeAtomic creates dir if needed, streams fill into a temp file there,
// flushes it and renames it to dir/name.
func writeAtomic(dir, name string, fill func(io.Writer) (int64, error)) (string, int64, error) {
	if err := checkName(name); err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return "", 0, fmt.Errorf("export: creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)

	// Same directory keeps rename(2) on one filesystem.
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("export: creating temp file for %s: %w", path, err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := fill(tmp)
	if err != nil {
		tmp.Close()
		return "", n, fmt.Errorf("export: writing %s: %w", path, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", n, fmt.Errorf("export: syncing %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return "", n, fmt.Errorf("export: closing %s: %w", path, err)
	}

	if err := os.Chmod(tmpPath, filePerms); err != nil {
		return "", n, fmt.Errorf("export: setting permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return "", n, fmt.Errorf("export: renaming into %s: %w", path, err)
	}

	success = true

	return path, n, nil
}

// checkName rejects names that would escape the target directory. Remote
// file names are used as local names, so this is the only guard.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", errBadName, name)
	}

	return nil
}
