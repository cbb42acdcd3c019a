// Package locator walks the remote resource hierarchy (site, drive, folder,
// item) one request per hop and finds a named file in a folder listing.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/remoteref"
	"github.com/tonimelisma/sharepoint-go/pkg/quickxorhash"
)

// ErrItemNotFound is returned by FindByName when no item matches. It wraps
// graph.ErrNotFound so callers can treat both cases the same way.
var ErrItemNotFound = fmt.Errorf("locator: item not found: %w", graph.ErrNotFound)

// Graph is the subset of the API client the locator needs.
// Satisfied by *graph.Client.
type Graph interface {
	ResolveSite(ctx context.Context, hostname, sitePath string) (*graph.Site, error)
	SiteDrive(ctx context.Context, siteID string) (*graph.Drive, error)
	ListChildren(ctx context.Context, driveID, folderPath string) (*graph.Listing, error)
	GetItemByPath(ctx context.Context, driveID, path string) (*graph.Item, error)
	Download(ctx context.Context, item *graph.Item, w io.Writer) (int64, error)
}

// Locator resolves references through a Graph. It holds no state between
// calls, so repeated resolution always asks the server again.
type Locator struct {
	g      Graph
	logger *slog.Logger
}

// New returns a Locator backed by g.
func New(g Graph, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Locator{g: g, logger: logger}
}

// ResolveSite looks up the site at hostname + sitePath.
func (l *Locator) ResolveSite(ctx context.Context, hostname, sitePath string) (remoteref.Ref, *graph.Site, error) {
	site, err := l.g.ResolveSite(ctx, hostname, sitePath)
	if err != nil {
		return remoteref.Ref{}, nil, fmt.Errorf("resolving site %s/%s: %w", hostname, sitePath, err)
	}

	ref, err := remoteref.New(remoteref.KindSite, site.ID)
	if err != nil {
		return remoteref.Ref{}, nil, fmt.Errorf("resolving site %s/%s: %w", hostname, sitePath, err)
	}

	l.logger.Debug("resolved site", slog.String("site", ref.String()))

	return ref, site, nil
}

// ResolveDrive returns the default document library of a resolved site.
func (l *Locator) ResolveDrive(ctx context.Context, site remoteref.Ref) (remoteref.Ref, *graph.Drive, error) {
	if err := site.Expect(remoteref.KindSite); err != nil {
		return remoteref.Ref{}, nil, fmt.Errorf("resolving drive: %w", err)
	}

	drive, err := l.g.SiteDrive(ctx, site.ID())
	if err != nil {
		return remoteref.Ref{}, nil, fmt.Errorf("resolving drive of %s: %w", site, err)
	}

	ref, err := remoteref.New(remoteref.KindDrive, drive.ID)
	if err != nil {
		return remoteref.Ref{}, nil, fmt.Errorf("resolving drive of %s: %w", site, err)
	}

	l.logger.Debug("resolved drive", slog.String("drive", ref.String()))

	return ref, drive, nil
}

// Listing returns one page of children of folder in drive. An empty folder
// means the drive root.
func (l *Locator) Listing(ctx context.Context, drive remoteref.Ref, folder string) (*graph.Listing, error) {
	if err := drive.Expect(remoteref.KindDrive); err != nil {
		return nil, fmt.Errorf("listing %q: %w", folder, err)
	}

	listing, err := l.g.ListChildren(ctx, drive.ID(), folder)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", folder, err)
	}

	return listing, nil
}

// ListChildren is Listing without the truncation marker.
func (l *Locator) ListChildren(ctx context.Context, drive remoteref.Ref, folder string) ([]graph.Item, error) {
	listing, err := l.Listing(ctx, drive, folder)
	if err != nil {
		return nil, err
	}

	return listing.Items, nil
}

// Stat resolves a single item by drive-relative path.
func (l *Locator) Stat(ctx context.Context, drive remoteref.Ref, path string) (*graph.Item, error) {
	if err := drive.Expect(remoteref.KindDrive); err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	item, err := l.g.GetItemByPath(ctx, drive.ID(), path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	return item, nil
}

// FindByName returns the first item whose name equals name exactly, in the
// order given. Duplicates after the first are ignored.
func FindByName(items []graph.Item, name string) (*graph.Item, error) {
	for i := range items {
		if items[i].Name == name {
			return &items[i], nil
		}
	}

	return nil, fmt.Errorf("%q: %w", name, ErrItemNotFound)
}

// FetchContent streams item's content into w. When the item carries a
// QuickXorHash the streamed bytes are checked against it; a mismatch is a
// *graph.DownloadError wrapping graph.ErrHashMismatch. Bytes already written
// to w are not retracted.
func (l *Locator) FetchContent(ctx context.Context, item *graph.Item, w io.Writer) (int64, error) {
	if item.IsFolder {
		return 0, &graph.DownloadError{Name: item.Name, Err: fmt.Errorf("%w: item is a folder", graph.ErrNoDownloadURL)}
	}

	if item.QuickXorHash == "" {
		return l.g.Download(ctx, item, w)
	}

	h := quickxorhash.New()

	n, err := l.g.Download(ctx, item, io.MultiWriter(w, h))
	if err != nil {
		return n, err
	}

	sum := h.Sum(nil)
	if !quickxorhash.Matches(sum, item.QuickXorHash) {
		l.logger.Warn("content hash mismatch",
			slog.String("name", item.Name),
			slog.String("expected", item.QuickXorHash),
			slog.String("actual", quickxorhash.Encode(sum)),
		)

		return n, &graph.DownloadError{Name: item.Name, Err: graph.ErrHashMismatch}
	}

	return n, nil
}

// Target names a file by its place in the hierarchy.
type Target struct {
	Hostname string
	SitePath string
	Folder   string
	Name     string
}

// Fetch runs the whole chain for t: resolve site, resolve drive, list the
// folder, find the file by name and stream it into w.
func (l *Locator) Fetch(ctx context.Context, t Target, w io.Writer) (*graph.Item, int64, error) {
	site, _, err := l.ResolveSite(ctx, t.Hostname, t.SitePath)
	if err != nil {
		return nil, 0, err
	}

	drive, _, err := l.ResolveDrive(ctx, site)
	if err != nil {
		return nil, 0, err
	}

	items, err := l.ListChildren(ctx, drive, t.Folder)
	if err != nil {
		return nil, 0, err
	}

	item, err := FindByName(items, t.Name)
	if err != nil {
		return nil, 0, fmt.Errorf("in folder %q: %w", t.Folder, err)
	}

	n, err := l.FetchContent(ctx, item, w)
	if err != nil {
		return item, n, fmt.Errorf("fetching %q: %w", t.Name, err)
	}

	return item, n, nil
}

// IsNotFound reports whether err means "the named thing is not there",
// either from the server or from a listing scan.
func IsNotFound(err error) bool {
	return errors.Is(err, graph.ErrNotFound)
}
