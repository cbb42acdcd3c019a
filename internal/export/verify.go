package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/pkg/quickxorhash"
)

// Verification statuses.
const (
	StatusOK           = "ok"
	StatusMissing      = "missing"
	StatusSizeMismatch = "size_mismatch"
	StatusHashMismatch = "hash_mismatch"
	StatusNoRemoteHash = "no_remote_hash"
)

// VerifyResult compares a downloaded file with the remote item it came from.
type VerifyResult struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Status     string `json:"status"`
	RemoteSize int64  `json:"remoteSize"`
	LocalSize  int64  `json:"localSize"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
}

// OK reports whether the local copy matched. A remote item without a hash
// counts as matched when the sizes agree.
func (r *VerifyResult) OK() bool {
	return r.Status == StatusOK || r.Status == StatusNoRemoteHash
}

// Verify checks the copy of item in the download directory. Size is compared
// first; the hash is only computed when sizes agree.
func (w *Writer) Verify(item *graph.Item) (*VerifyResult, error) {
	if err := checkName(item.Name); err != nil {
		return nil, err
	}

	path := filepath.Join(w.downloadDir, item.Name)
	res := &VerifyResult{
		Name:       item.Name,
		Path:       path,
		RemoteSize: item.Size,
		Expected:   item.QuickXorHash,
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		res.Status = StatusMissing
		return res, nil
	}

	if err != nil {
		return nil, fmt.Errorf("export: stat %s: %w", path, err)
	}

	res.LocalSize = info.Size()

	if res.LocalSize != item.Size {
		res.Status = StatusSizeMismatch
		return res, nil
	}

	if item.QuickXorHash == "" {
		res.Status = StatusNoRemoteHash
		return res, nil
	}

	actual, err := ComputeQuickXorHash(path)
	if err != nil {
		return nil, err
	}

	res.Actual = actual
	res.Status = StatusOK

	if actual != item.QuickXorHash {
		res.Status = StatusHashMismatch
	}

	w.logger.Debug("verified download",
		slog.String("name", item.Name),
		slog.String("status", res.Status),
	)

	return res, nil
}

// ComputeQuickXorHash returns the base64 QuickXorHash of the file at path.
// Streams the file; memory use is constant.
func ComputeQuickXorHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := quickxorhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return quickxorhash.Encode(h.Sum(nil)), nil
}
