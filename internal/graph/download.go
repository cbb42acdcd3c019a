package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Download streams the content of item to w and returns the byte count.
// It issues a plain GET to the item's pre-authenticated download URL: the
// URL carries its own signature, so the bearer token is never sent there.
// Failures are reported as *DownloadError.
func (c *Client) Download(ctx context.Context, item *Item, w io.Writer) (int64, error) {
	if !item.HasDownloadURL() {
		// Warn, not Error: expected for folders, resolved without a
		// listing, or for zero-byte files.
		c.logger.Warn("item has no download URL",
			slog.String("name", item.Name),
			slog.String("item_id", item.ID),
			slog.Bool("is_folder", item.IsFolder),
		)

		return 0, &DownloadError{Name: item.Name, Err: ErrNoDownloadURL}
	}

	c.logger.Info("downloading item",
		slog.String("name", item.Name),
		slog.String("item_id", item.ID),
		slog.Any("url", item.DownloadURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(item.DownloadURL), http.NoBody)
	if err != nil {
		return 0, &DownloadError{Name: item.Name, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("graph: download canceled: %w", ctx.Err())
		}

		return 0, &DownloadError{Name: item.Name, Err: fmt.Errorf("%w: %w", ErrDownloadFailed, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

		return 0, &DownloadError{
			Name:       item.Name,
			StatusCode: resp.StatusCode,
			Err:        classifyDownloadStatus(resp.StatusCode),
		}
	}

	n, copyErr := io.Copy(w, resp.Body)
	if copyErr != nil {
		c.logger.Error("streaming download content failed",
			slog.String("name", item.Name),
			slog.String("error", copyErr.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return n, &DownloadError{Name: item.Name, Err: fmt.Errorf("streaming content: %w", copyErr)}
	}

	c.logger.Debug("download complete",
		slog.String("name", item.Name),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}
