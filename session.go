package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/internal/export"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/graphsdk"
	"github.com/tonimelisma/sharepoint-go/internal/locator"
	"github.com/tonimelisma/sharepoint-go/internal/remoteref"
	"github.com/tonimelisma/sharepoint-go/internal/throttle"
)

// Session holds the authenticated clients for one run. Metadata requests
// use a client with an overall timeout; downloads use one that only bounds
// the wait for response headers, so large files are not cut off.
type Session struct {
	Creds    *graph.CredentialSource
	Client   *graph.Client
	Transfer *graph.Client
	Locator  *locator.Locator

	cfg    *config.Config
	logger *slog.Logger
}

// NewSession builds a Session from resolved config. No network traffic
// happens until the first call.
func NewSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if err := config.ValidateResolved(cfg); err != nil {
		return nil, err
	}

	timeout := cfg.Network.TimeoutDuration()
	meta := &http.Client{Timeout: timeout}
	transfer := &http.Client{Transport: transferTransport(timeout)}

	creds, err := graph.NewCredentialSource(ctx, credential(cfg), credentialOptions(cfg, meta), logger)
	if err != nil {
		return nil, fmt.Errorf("preparing credential: %w", err)
	}

	client := graph.NewClient(cfg.Network.GraphURL, meta, creds, logger, cfg.Network.UserAgent).
		WithRetries(cfg.Network.MaxRetries)
	transferClient := graph.NewClient(cfg.Network.GraphURL, transfer, creds, logger, cfg.Network.UserAgent)

	routed := splitGraph{
		Client:   client,
		transfer: transferClient,
		limit:    throttle.New(cfg.Network.BandwidthBytes(), logger),
	}

	logger.Debug("session ready",
		slog.String("graph_url", cfg.Network.GraphURL),
		slog.Duration("timeout", timeout),
		slog.Int("max_retries", cfg.Network.MaxRetries),
	)

	return &Session{
		Creds:    creds,
		Client:   client,
		Transfer: transferClient,
		Locator:  locator.New(routed, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// splitGraph routes downloads to the transfer client, throttled by limit,
// and everything else to the metadata client.
type splitGraph struct {
	*graph.Client
	transfer *graph.Client
	limit    *throttle.Limiter
}

func (s splitGraph) Download(ctx context.Context, item *graph.Item, w io.Writer) (int64, error) {
	return s.transfer.Download(ctx, item, s.limit.Writer(ctx, w))
}

func transferTransport(timeout time.Duration) http.RoundTripper {
	t, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	t = t.Clone()
	t.ResponseHeaderTimeout = timeout

	return t
}

func credential(cfg *config.Config) graph.Credential {
	return graph.Credential{
		TenantID:     cfg.Auth.TenantID,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
	}
}

func credentialOptions(cfg *config.Config, hc *http.Client) graph.CredentialOptions {
	return graph.CredentialOptions{
		Provider:     cfg.Auth.Provider,
		Scope:        cfg.Auth.Scope,
		AuthorityURL: cfg.Network.AuthorityURL,
		HTTPClient:   hc,
	}
}

// userLister is satisfied by *graph.Client and *graphsdk.UserLister.
type userLister interface {
	ListUsers(ctx context.Context) (*graph.UserListing, error)
}

// UserLister returns the lister for source and the export file its output
// belongs in.
func (s *Session) UserLister(source string) (userLister, string, error) {
	switch source {
	case "", "rest":
		return s.Client, export.UsersFile, nil
	case "sdk":
		azCred, err := graph.NewAzureCredential(credential(s.cfg), credentialOptions(s.cfg, &http.Client{
			Timeout: s.cfg.Network.TimeoutDuration(),
		}))
		if err != nil {
			return nil, "", err
		}

		lister, err := graphsdk.NewUserLister(azCred, []string{s.cfg.Auth.Scope}, s.cfg.Network.GraphURL, s.logger)
		if err != nil {
			return nil, "", err
		}

		return lister, export.SDKUsersFile, nil
	default:
		return nil, "", fmt.Errorf("unknown users source %q", source)
	}
}

// resolveDrive resolves the configured site and its default drive. The
// returned ref addresses the drive.
func (s *Session) resolveDrive(ctx context.Context) (remoteref.Ref, *graph.Site, *graph.Drive, error) {
	if err := config.RequireSite(s.cfg); err != nil {
		return remoteref.Ref{}, nil, nil, err
	}

	siteRef, site, err := s.Locator.ResolveSite(ctx, s.cfg.Site.Hostname, s.cfg.Site.SitePath)
	if err != nil {
		return remoteref.Ref{}, nil, nil, err
	}

	driveRef, drive, err := s.Locator.ResolveDrive(ctx, siteRef)
	if err != nil {
		return remoteref.Ref{}, nil, nil, err
	}

	return driveRef, site, drive, nil
}
