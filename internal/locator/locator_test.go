package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/remoteref"
	"github.com/tonimelisma/sharepoint-go/pkg/quickxorhash"
)

// fakeGraph is an in-memory Graph. Content is keyed by download URL.
type fakeGraph struct {
	site     *graph.Site
	drive    *graph.Drive
	listings map[string]*graph.Listing
	content  map[string]string
	err      error

	siteCalls  int
	fetchedURL string
}

func (f *fakeGraph) ResolveSite(_ context.Context, _, _ string) (*graph.Site, error) {
	f.siteCalls++
	if f.err != nil {
		return nil, f.err
	}

	return f.site, nil
}

func (f *fakeGraph) SiteDrive(_ context.Context, siteID string) (*graph.Drive, error) {
	if siteID != f.site.ID {
		return nil, &graph.GraphError{StatusCode: http.StatusNotFound, Err: graph.ErrNotFound}
	}

	return f.drive, nil
}

func (f *fakeGraph) ListChildren(_ context.Context, _, folder string) (*graph.Listing, error) {
	l, ok := f.listings[folder]
	if !ok {
		return nil, &graph.GraphError{StatusCode: http.StatusNotFound, Err: graph.ErrNotFound}
	}

	return l, nil
}

func (f *fakeGraph) GetItemByPath(_ context.Context, _, path string) (*graph.Item, error) {
	for _, l := range f.listings {
		for i := range l.Items {
			if "/"+l.Items[i].Name == path {
				return &l.Items[i], nil
			}
		}
	}

	return nil, &graph.GraphError{StatusCode: http.StatusNotFound, Err: graph.ErrNotFound}
}

func (f *fakeGraph) Download(_ context.Context, item *graph.Item, w io.Writer) (int64, error) {
	if !item.HasDownloadURL() {
		return 0, &graph.DownloadError{Name: item.Name, Err: graph.ErrNoDownloadURL}
	}

	f.fetchedURL = string(item.DownloadURL)
	n, err := io.Copy(w, strings.NewReader(f.content[string(item.DownloadURL)]))

	return n, err
}

func scenarioListing() []graph.Item {
	return []graph.Item{
		{ID: "1", Name: "a.txt"},
		{ID: "2", Name: "test.csv", DownloadURL: "U"},
		{ID: "3", Name: "b.txt"},
	}
}

func newFake() *fakeGraph {
	return &fakeGraph{
		site:  &graph.Site{ID: "host,site-guid,web-guid"},
		drive: &graph.Drive{ID: "b!drive"},
		listings: map[string]*graph.Listing{
			"Benchmarking Data": {Items: scenarioListing()},
			"":                  {},
		},
		content: map[string]string{"U": "id,value\n1,alpha\n"},
	}
}

func TestFindByName_ReturnsSecondItem(t *testing.T) {
	items := scenarioListing()

	item, err := FindByName(items, "test.csv")
	require.NoError(t, err)
	assert.Equal(t, "2", item.ID)
	assert.Same(t, &items[1], item)
}

func TestFindByName_FirstMatchWins(t *testing.T) {
	items := []graph.Item{
		{ID: "1", Name: "dup.csv"},
		{ID: "2", Name: "dup.csv"},
	}

	item, err := FindByName(items, "dup.csv")
	require.NoError(t, err)
	assert.Equal(t, "1", item.ID)
}

func TestFindByName_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		items []graph.Item
		want  string
	}{
		{"empty listing", nil, "test.csv"},
		{"no match", scenarioListing(), "missing.csv"},
		{"case differs", scenarioListing(), "TEST.csv"},
		{"whitespace differs", scenarioListing(), "test.csv "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := FindByName(tt.items, tt.want)
			require.Error(t, err)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, ErrItemNotFound)
			assert.ErrorIs(t, err, graph.ErrNotFound)
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestResolveSiteThenDrive_Idempotent(t *testing.T) {
	fake := newFake()
	loc := New(fake, slog.Default())
	ctx := context.Background()

	var sites, drives []remoteref.Ref

	for range 2 {
		site, _, err := loc.ResolveSite(ctx, "contoso.sharepoint.com", "sites/SystemTwo")
		require.NoError(t, err)

		drive, _, err := loc.ResolveDrive(ctx, site)
		require.NoError(t, err)

		sites = append(sites, site)
		drives = append(drives, drive)
	}

	assert.Equal(t, sites[0], sites[1])
	assert.Equal(t, drives[0], drives[1])
	assert.Equal(t, remoteref.KindDrive, drives[0].Kind())
	assert.Equal(t, 2, fake.siteCalls, "resolution is never cached")
}

func TestResolveSite_PropagatesNotFound(t *testing.T) {
	fake := newFake()
	fake.err = &graph.GraphError{StatusCode: http.StatusNotFound, Err: graph.ErrNotFound}

	_, _, err := New(fake, nil).ResolveSite(context.Background(), "contoso.sharepoint.com", "sites/nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "sites/nope")
}

func TestResolveSite_EmptyIDRejected(t *testing.T) {
	fake := newFake()
	fake.site = &graph.Site{}

	_, _, err := New(fake, nil).ResolveSite(context.Background(), "h", "p")
	assert.ErrorIs(t, err, remoteref.ErrEmptyID)
}

func TestResolveDrive_RejectsWrongKind(t *testing.T) {
	loc := New(newFake(), nil)

	driveRef, err := remoteref.New(remoteref.KindDrive, "b!drive")
	require.NoError(t, err)

	_, _, err = loc.ResolveDrive(context.Background(), driveRef)
	assert.ErrorIs(t, err, remoteref.ErrKindMismatch)

	_, _, err = loc.ResolveDrive(context.Background(), remoteref.Ref{})
	assert.ErrorIs(t, err, remoteref.ErrEmptyID)
}

func TestListChildren_RequiresDriveRef(t *testing.T) {
	loc := New(newFake(), nil)

	siteRef, err := remoteref.New(remoteref.KindSite, "s")
	require.NoError(t, err)

	_, err = loc.ListChildren(context.Background(), siteRef, "")
	assert.ErrorIs(t, err, remoteref.ErrKindMismatch)
}

func TestFetchContent_GetsDownloadURL(t *testing.T) {
	fake := newFake()
	loc := New(fake, nil)

	item, err := FindByName(scenarioListing(), "test.csv")
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := loc.FetchContent(context.Background(), item, &buf)
	require.NoError(t, err)

	assert.Equal(t, "U", fake.fetchedURL)
	assert.Equal(t, "id,value\n1,alpha\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

func TestFetchContent_NoDownloadURL(t *testing.T) {
	loc := New(newFake(), nil)

	_, err := loc.FetchContent(context.Background(), &graph.Item{Name: "a.txt"}, io.Discard)
	assert.ErrorIs(t, err, graph.ErrNoDownloadURL)
}

func TestFetchContent_FolderRejected(t *testing.T) {
	fake := newFake()
	loc := New(fake, nil)

	_, err := loc.FetchContent(context.Background(),
		&graph.Item{Name: "dir", IsFolder: true, DownloadURL: "U"}, io.Discard)

	var dlErr *graph.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Empty(t, fake.fetchedURL)
}

func TestFetchContent_VerifiesHash(t *testing.T) {
	fake := newFake()
	loc := New(fake, nil)

	h := quickxorhash.New()
	_, _ = h.Write([]byte(fake.content["U"]))
	good := quickxorhash.Encode(h.Sum(nil))

	item := &graph.Item{Name: "test.csv", DownloadURL: "U", QuickXorHash: good}

	var buf bytes.Buffer
	_, err := loc.FetchContent(context.Background(), item, &buf)
	require.NoError(t, err)

	item.QuickXorHash = "AAAAAAAAAAAAAAAAAAAAAAAAAAA="
	_, err = loc.FetchContent(context.Background(), item, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrHashMismatch)

	var dlErr *graph.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, "test.csv", dlErr.Name)
}

func TestFetch_FullChain(t *testing.T) {
	fake := newFake()
	loc := New(fake, nil)

	var buf bytes.Buffer
	item, n, err := loc.Fetch(context.Background(), Target{
		Hostname: "contoso.sharepoint.com",
		SitePath: "sites/SystemTwo",
		Folder:   "Benchmarking Data",
		Name:     "test.csv",
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "2", item.ID)
	assert.Equal(t, int64(len(fake.content["U"])), n)
	assert.Equal(t, fake.content["U"], buf.String())
}

func TestFetch_MissingFileIsNotFound(t *testing.T) {
	loc := New(newFake(), nil)

	_, _, err := loc.Fetch(context.Background(), Target{
		Hostname: "h", SitePath: "p", Folder: "", Name: "test.csv",
	}, io.Discard)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStat(t *testing.T) {
	loc := New(newFake(), nil)

	drive, err := remoteref.New(remoteref.KindDrive, "b!drive")
	require.NoError(t, err)

	item, err := loc.Stat(context.Background(), drive, "/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "3", item.ID)

	_, err = loc.Stat(context.Background(), drive, "/nope")
	assert.True(t, IsNotFound(err))
}

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

// TestFetch_OverHTTP drives the real client against a fake API and a
// separate fake download host.
func TestFetch_OverHTTP(t *testing.T) {
	const body = "col\nvalue\n"

	var downloads atomic.Int32

	dl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, body)
	}))
	defer dl.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sites/contoso.sharepoint.com:/sites/SystemTwo", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "site-1"}`)
	})
	mux.HandleFunc("GET /sites/site-1/drive", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "drive-1"}`)
	})
	mux.HandleFunc("GET /drives/drive-1/root:/Reports:/children", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"value": [
			{"id": "a", "name": "a.txt"},
			{"id": "t", "name": "test.csv", "file": {}, "@microsoft.graph.downloadUrl": %q},
			{"id": "b", "name": "b.txt"}
		]}`, dl.URL+"/content")
	})

	api := httptest.NewServer(mux)
	defer api.Close()

	client := graph.NewClient(api.URL, http.DefaultClient, staticToken("tok"), slog.Default(), "")
	loc := New(client, slog.Default())

	var buf bytes.Buffer
	item, _, err := loc.Fetch(context.Background(), Target{
		Hostname: "contoso.sharepoint.com",
		SitePath: "sites/SystemTwo",
		Folder:   "Reports",
		Name:     "test.csv",
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "t", item.ID)
	assert.Equal(t, body, buf.String())
	assert.Equal(t, int32(1), downloads.Load())
}

func TestFetch_AuthFailureIsTerminal(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	client := graph.NewClient(api.URL, http.DefaultClient, staticToken("tok"), slog.Default(), "")

	_, _, err := New(client, nil).Fetch(context.Background(), Target{Hostname: "h", SitePath: "p", Name: "x"}, io.Discard)
	require.Error(t, err)
	assert.True(t, graph.IsAuthFailure(err))
	assert.False(t, errors.Is(err, ErrItemNotFound))
}
