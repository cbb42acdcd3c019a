package export

import (
	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

// SiteRecord is the site.json shape: the resolved site and its default
// document library.
type SiteRecord struct {
	Site  *graph.Site  `json:"site"`
	Drive *graph.Drive `json:"drive,omitempty"`
}

// ListingRecord is the shape of a folder listing export.
type ListingRecord struct {
	Folder    string       `json:"folder"`
	Items     []graph.Item `json:"value"`
	Truncated bool         `json:"truncated"`
}

// NewListingRecord builds a ListingRecord. The server's continuation link is
// reduced to a flag.
func NewListingRecord(folder string, l *graph.Listing) ListingRecord {
	items := l.Items
	if items == nil {
		items = []graph.Item{}
	}

	return ListingRecord{Folder: folder, Items: items, Truncated: l.Truncated()}
}

// FileRecord is the file_info.json shape.
type FileRecord struct {
	Item     *graph.Item     `json:"item"`
	Download *DownloadResult `json:"download,omitempty"`
}

// UserRecords returns users in the [{name, email}] export shape, never nil.
func UserRecords(users []graph.User) []graph.User {
	if users == nil {
		return []graph.User{}
	}

	return users
}
