package graph

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// page is one OData collection response. NextLink is set when the server
// holds more entries than it returned.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"` //nolint:tagliatelle // OData annotation key
}

// getPage fetches exactly one collection page. Continuation links are
// reported, never followed.
func getPage[T any](ctx context.Context, c *Client, apiPath, what string) (*page[T], error) {
	resp, err := c.Do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p page[T]
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, &DecodeError{What: what, Err: err}
	}

	if p.NextLink != "" {
		c.logger.Warn("collection truncated to first page",
			slog.String("kind", what),
			slog.Int("count", len(p.Value)),
		)
	}

	return &p, nil
}

// dedupeByID drops entries whose ID was already seen, keeping the first
// occurrence and the original order. Entries without an ID are kept.
// SharePoint occasionally repeats an entry when the collection changes
// mid-enumeration.
func dedupeByID[T any](entries []T, id func(*T) string, what string, logger *slog.Logger) []T {
	if len(entries) < 2 {
		return entries
	}

	seen := make(map[string]bool, len(entries))
	kept := entries[:0:0]

	for i := range entries {
		key := id(&entries[i])
		if key != "" && seen[key] {
			logger.Debug("dropping repeated entry",
				slog.String("kind", what),
				slog.String("id", key),
			)

			continue
		}

		seen[key] = true
		kept = append(kept, entries[i])
	}

	if dupes := len(entries) - len(kept); dupes > 0 {
		logger.Info("deduplicated collection page",
			slog.String("kind", what),
			slog.Int("duplicate_count", dupes),
			slog.Int("remaining_count", len(kept)),
		)
	}

	return kept
}

func itemID(i *Item) string { return i.ID }

func userID(u *User) string { return u.ID }
