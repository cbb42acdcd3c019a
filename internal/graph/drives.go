package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// siteResponse mirrors the Graph API site JSON response.
// Unexported: callers use Site via toSite() normalization.
type siteResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

func (s *siteResponse) toSite() Site {
	return Site{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
		WebURL:      s.WebURL,
	}
}

// driveResponse mirrors the Graph API drive JSON response.
// Unexported: callers use Drive via toDrive() normalization.
type driveResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	DriveType string      `json:"driveType"`
	Owner     *ownerFacet `json:"owner"`
	Quota     *quotaFacet `json:"quota"`
}

// ownerFacet represents the owner block in a Graph API drive response.
// Site libraries are owned by a group, personal drives by a user.
type ownerFacet struct {
	User *struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
	Group *struct {
		DisplayName string `json:"displayName"`
	} `json:"group"`
}

// quotaFacet represents the quota block in a Graph API drive response.
type quotaFacet struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// toDrive normalizes a Graph API drive response into our Drive type.
// Nil-safe for optional owner and quota facets.
func (d *driveResponse) toDrive() Drive {
	drive := Drive{
		ID:        d.ID,
		Name:      d.Name,
		DriveType: d.DriveType,
	}

	if d.Owner != nil {
		switch {
		case d.Owner.User != nil:
			drive.OwnerName = d.Owner.User.DisplayName
		case d.Owner.Group != nil:
			drive.OwnerName = d.Owner.Group.DisplayName
		}
	}

	if d.Quota != nil {
		drive.QuotaUsed = d.Quota.Used
		drive.QuotaTotal = d.Quota.Total
	}

	return drive
}

// sitePath builds the /sites/{hostname}:/{path} address. An empty path
// addresses the tenant root site.
func sitePath(hostname, serverRelative string) string {
	serverRelative = strings.Trim(serverRelative, "/")
	if serverRelative == "" {
		return "/sites/" + hostname
	}

	return fmt.Sprintf("/sites/%s:/%s", hostname, encodePathSegments(serverRelative))
}

// ResolveSite looks up a site by hostname (e.g. "contoso.sharepoint.com")
// and server-relative path (e.g. "sites/Finance").
func (c *Client) ResolveSite(ctx context.Context, hostname, serverRelative string) (*Site, error) {
	c.logger.Info("resolving site",
		slog.String("hostname", hostname),
		slog.String("site_path", serverRelative),
	)

	resp, err := c.Do(ctx, http.MethodGet, sitePath(hostname, serverRelative), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr siteResponse
	if err := decodeObject(resp.Body, "site", &sr, func() string { return sr.ID }); err != nil {
		return nil, err
	}

	site := sr.toSite()

	c.logger.Debug("resolved site",
		slog.String("id", site.ID),
		slog.String("display_name", site.DisplayName),
	)

	return &site, nil
}

// SiteDrive returns the default document library of a site.
func (c *Client) SiteDrive(ctx context.Context, siteID string) (*Drive, error) {
	c.logger.Info("fetching site drive",
		slog.String("site_id", siteID),
	)

	return c.fetchDrive(ctx, fmt.Sprintf("/sites/%s/drive", siteID))
}

// Drive returns a specific drive by ID.
func (c *Client) Drive(ctx context.Context, driveID string) (*Drive, error) {
	c.logger.Info("fetching drive",
		slog.String("drive_id", driveID),
	)

	return c.fetchDrive(ctx, fmt.Sprintf("/drives/%s", driveID))
}

func (c *Client) fetchDrive(ctx context.Context, apiPath string) (*Drive, error) {
	resp, err := c.Do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dr driveResponse
	if err := decodeObject(resp.Body, "drive", &dr, func() string { return dr.ID }); err != nil {
		return nil, err
	}

	drive := dr.toDrive()

	c.logger.Debug("fetched drive",
		slog.String("id", drive.ID),
		slog.String("name", drive.Name),
		slog.String("drive_type", drive.DriveType),
	)

	return &drive, nil
}

// decodeObject decodes a single resolved object and requires a non-empty id.
func decodeObject(r io.Reader, what string, v any, id func() string) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return &DecodeError{What: what, Err: err}
	}

	if id() == "" {
		return &DecodeError{What: what, Err: errMissingID}
	}

	return nil
}
