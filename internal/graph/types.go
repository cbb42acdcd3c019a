package graph

import (
	"log/slog"
	"time"
)

// ChildCountUnknown indicates the child count was not present in the API response.
const ChildCountUnknown = -1

// Item represents a drive item (file or folder) in a document library.
// Fields are normalized from the Graph API response: callers never see raw API data.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DriveID      string    `json:"driveId,omitempty"`
	ParentID     string    `json:"parentId,omitempty"`
	Size         int64     `json:"size"`
	ETag         string    `json:"eTag,omitempty"`
	IsFolder     bool      `json:"isFolder"`
	MimeType     string    `json:"mimeType,omitempty"`
	QuickXorHash string    `json:"quickXorHash,omitempty"` // base64-encoded
	WebURL       string    `json:"webUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	ChildCount   int       `json:"childCount"` // ChildCountUnknown if not present

	// DownloadURL is pre-authenticated and short-lived. Never exported.
	DownloadURL DownloadURL `json:"-"`
}

// DownloadURL is a pre-authenticated content URL. The query string carries a
// bearer-equivalent signature, so it logs as [REDACTED].
type DownloadURL string

// LogValue implements slog.LogValuer.
func (u DownloadURL) LogValue() slog.Value {
	if u == "" {
		return slog.StringValue("")
	}

	return slog.StringValue("[REDACTED]")
}

// HasDownloadURL reports whether the item can be fetched without a bearer token.
func (i *Item) HasDownloadURL() bool {
	return i.DownloadURL != ""
}

// Kind returns "folder" or "file".
func (i *Item) Kind() string {
	if i.IsFolder {
		return "folder"
	}

	return "file"
}

// Listing is one page of a drive item collection. NextLink is non-empty when
// the server has more items; it is reported, never followed.
type Listing struct {
	Items    []Item `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}

// Truncated reports whether the server held back further pages.
func (l *Listing) Truncated() bool {
	return l.NextLink != ""
}

// Site is a SharePoint site resolved from a hostname and server-relative path.
type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

// Drive is a document library.
type Drive struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DriveType  string `json:"driveType"`
	OwnerName  string `json:"ownerName,omitempty"`
	QuotaUsed  int64  `json:"quotaUsed"`
	QuotaTotal int64  `json:"quotaTotal"`
}

// User is a directory user reduced to the export shape.
type User struct {
	ID    string `json:"-"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserListing is one page of the users collection.
type UserListing struct {
	Users    []User `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}
