package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// childrenTop is the largest page Graph serves for driveItem collections.
const childrenTop = 200

// Years outside this window are treated as missing timestamps.
const (
	minValidYear = 1970
	maxValidYear = 2100
)

// driveItemResponse is the driveItem JSON as Graph sends it.
type driveItemResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Size                 int64  `json:"size"`
	ETag                 string `json:"eTag"`
	WebURL               string `json:"webUrl"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	ParentReference      *struct {
		ID      string `json:"id"`
		DriveID string `json:"driveId"`
	} `json:"parentReference"`
	File *struct {
		MimeType string `json:"mimeType"`
		Hashes   *struct {
			QuickXorHash string `json:"quickXorHash"`
		} `json:"hashes"`
	} `json:"file"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder"`
	DownloadURL string `json:"@microsoft.graph.downloadUrl"` //nolint:tagliatelle // Graph API annotation key
}

func (d *driveItemResponse) toItem(logger *slog.Logger) Item {
	item := Item{
		ID:          d.ID,
		Name:        d.Name,
		Size:        d.Size,
		ETag:        d.ETag,
		WebURL:      d.WebURL,
		ChildCount:  ChildCountUnknown,
		DownloadURL: DownloadURL(d.DownloadURL),
		CreatedAt:   parseTimestamp(d.CreatedDateTime, "createdDateTime", d.ID, logger),
		ModifiedAt:  parseTimestamp(d.LastModifiedDateTime, "lastModifiedDateTime", d.ID, logger),
	}

	// SharePoint drive ids are case-sensitive base64; keep them verbatim.
	if p := d.ParentReference; p != nil {
		item.DriveID = p.DriveID
		item.ParentID = p.ID
	}

	if d.Folder != nil {
		item.IsFolder = true
		item.ChildCount = d.Folder.ChildCount
	}

	if f := d.File; f != nil {
		item.MimeType = f.MimeType
		if f.Hashes != nil {
			item.QuickXorHash = f.Hashes.QuickXorHash
		}
	}

	return item
}

// parseTimestamp returns the zero time for empty, malformed or implausible
// values, logging the latter two.
func parseTimestamp(raw, field, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)

	switch {
	case err != nil:
		logger.Warn("ignoring malformed timestamp",
			slog.String("field", field),
			slog.String("item_id", itemID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)
	case t.Year() < minValidYear || t.Year() > maxValidYear:
		logger.Warn("ignoring out-of-range timestamp",
			slog.String("field", field),
			slog.String("item_id", itemID),
			slog.String("raw", raw),
		)
	default:
		return t
	}

	return time.Time{}
}

// encodePathSegments escapes each segment of a slash-separated path so
// names with '#', '?' or spaces survive interpolation into a URL.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i := range segments {
		segments[i] = url.PathEscape(segments[i])
	}

	return strings.Join(segments, "/")
}

// drivePathURL addresses a drive-relative path: the root itself for "" or
// "/", otherwise the root:/path: form. suffix is appended after the path
// (e.g. ":/children").
func drivePathURL(driveID, path, suffix string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "/drives/" + driveID + "/root" + strings.TrimPrefix(suffix, ":")
	}

	return "/drives/" + driveID + "/root:/" + encodePathSegments(path) + suffix
}

// GetItem fetches one drive item by id.
func (c *Client) GetItem(ctx context.Context, driveID, itemID string) (*Item, error) {
	c.logger.Info("getting item",
		slog.String("drive_id", driveID),
		slog.String("item_id", itemID),
	)

	return c.fetchItem(ctx, "/drives/"+driveID+"/items/"+itemID)
}

// GetItemByPath fetches one drive item by its path below the drive root.
func (c *Client) GetItemByPath(ctx context.Context, driveID, remotePath string) (*Item, error) {
	c.logger.Info("getting item by path",
		slog.String("drive_id", driveID),
		slog.String("path", remotePath),
	)

	return c.fetchItem(ctx, drivePathURL(driveID, remotePath, ""))
}

func (c *Client) fetchItem(ctx context.Context, apiPath string) (*Item, error) {
	resp, err := c.Do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw driveItemResponse
	if err := decodeObject(resp.Body, "item", &raw, func() string { return raw.ID }); err != nil {
		return nil, err
	}

	item := raw.toItem(c.logger)

	return &item, nil
}

// ListChildren returns the first page of a folder's children; an empty
// folderPath lists the drive root. A truncated listing keeps the server's
// NextLink so callers can tell.
func (c *Client) ListChildren(ctx context.Context, driveID, folderPath string) (*Listing, error) {
	c.logger.Info("listing children",
		slog.String("drive_id", driveID),
		slog.String("folder", folderPath),
	)

	apiPath := fmt.Sprintf("%s?$top=%d", drivePathURL(driveID, folderPath, ":/children"), childrenTop)

	p, err := getPage[driveItemResponse](ctx, c, apiPath, "children")
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(p.Value))
	for i := range p.Value {
		if p.Value[i].ID == "" {
			return nil, &DecodeError{What: "children", Err: fmt.Errorf("entry %d: %w", i, errMissingID)}
		}

		items[i] = p.Value[i].toItem(c.logger)
	}

	items = dedupeByID(items, itemID, "item", c.logger)

	c.logger.Debug("listed children",
		slog.String("drive_id", driveID),
		slog.Int("count", len(items)),
	)

	return &Listing{Items: items, NextLink: p.NextLink}, nil
}
