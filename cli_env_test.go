package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/pkg/quickxorhash"
)

const (
	testFileContent    = "id,value\n1,alpha\n2,beta\n"
	testArchiveContent = "id,value\n0,old\n"
	testSiteID         = "contoso.sharepoint.com,site-guid,web-guid"
	testDriveID        = "b!Drive-1_MixedCase"
)

// fakeTenant is an identity endpoint and a Graph endpoint backed by a
// small fixed tree:
//
//	/             Reports/, readme.txt, test.csv
//	/Reports      archive.csv, other.csv
type fakeTenant struct {
	graph     *httptest.Server
	authority *httptest.Server
	dir       string
}

func newFakeTenant(t *testing.T) *fakeTenant {
	t.Helper()

	ft := &fakeTenant{dir: t.TempDir()}

	ft.authority = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tenant-1/oauth2/v2.0/token" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(ft.authority.Close)

	ft.graph = httptest.NewServer(http.HandlerFunc(ft.serveGraph))
	t.Cleanup(ft.graph.Close)

	return ft
}

func (ft *fakeTenant) serveGraph(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/dl/test.csv":
		fmt.Fprint(w, testFileContent)
		return
	case "/dl/archive.csv":
		fmt.Fprint(w, testArchiveContent)
		return
	}

	if r.Header.Get("Authorization") != "Bearer app-token" {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"InvalidAuthenticationToken"}}`)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	dl := "http://" + r.Host + "/dl/"

	switch r.URL.Path {
	case "/sites/contoso.sharepoint.com:/sites/Team":
		fmt.Fprintf(w, `{"id": %q, "name": "Team", "displayName": "Team Site", "webUrl": "https://contoso.sharepoint.com/sites/Team"}`, testSiteID)
	case "/sites/" + testSiteID + "/drive":
		fmt.Fprintf(w, `{"id": %q, "name": "Documents", "driveType": "documentLibrary"}`, testDriveID)
	case "/drives/" + testDriveID + "/root/children":
		fmt.Fprintf(w, `{"value": [
			{"id": "folder-1", "name": "Reports", "folder": {"childCount": 2}},
			{"id": "file-0", "name": "readme.txt", "size": 5, "file": {"mimeType": "text/plain"}},
			%s
		]}`, fileJSON("file-1", "test.csv", testFileContent, dl+"test.csv", ""))
	case "/drives/" + testDriveID + "/root:/Reports:/children":
		fmt.Fprintf(w, `{"value": [
			%s,
			{"id": "file-2", "name": "other.csv", "size": 1, "file": {"mimeType": "text/csv"}}
		]}`, fileJSON("file-3", "archive.csv", testArchiveContent, dl+"archive.csv", ""))
	case "/drives/" + testDriveID + "/root:/test.csv":
		fmt.Fprint(w, fileJSON("file-1", "test.csv", testFileContent, "", "by-path-etag"))
	case "/drives/" + testDriveID + "/root:/Reports/archive.csv":
		fmt.Fprint(w, fileJSON("file-3", "archive.csv", testArchiveContent, "", "by-path-etag"))
	case "/users":
		fmt.Fprint(w, `{"value": [
			{"id": "u1", "displayName": "Ada Lovelace", "mail": "ada@contoso.com"},
			{"id": "u2", "displayName": "Grace Hopper", "mail": "grace@contoso.com"}
		]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"itemNotFound"}}`)
	}
}

// fileJSON renders a driveItem for a file holding content. An empty dlURL
// leaves out the download annotation, as item-by-path responses often do.
func fileJSON(id, name, content, dlURL, etag string) string {
	out := fmt.Sprintf(`{"id": %q, "name": %q, "size": %d, "eTag": %q,
		"parentReference": {"id": "root-id", "driveId": %q},
		"file": {"mimeType": "text/csv", "hashes": {"quickXorHash": %q}}`,
		id, name, len(content), etag, testDriveID, contentHash(content))

	if dlURL != "" {
		out += fmt.Sprintf(`, "@microsoft.graph.downloadUrl": %q`, dlURL)
	}

	return out + "}"
}

func contentHash(s string) string {
	h := quickxorhash.New()
	_, _ = h.Write([]byte(s))

	return quickxorhash.Encode(h.Sum(nil))
}

func (ft *fakeTenant) jsonDir() string     { return filepath.Join(ft.dir, "jsons") }
func (ft *fakeTenant) downloadDir() string { return filepath.Join(ft.dir, "downloads") }

// writeConfig writes a config file pointing at the fake endpoints. withSecret
// false leaves the credential incomplete.
func (ft *fakeTenant) writeConfig(t *testing.T, withSecret bool) string {
	t.Helper()

	secret := ""
	if withSecret {
		secret = "s3cret"
	}

	content := fmt.Sprintf(`
[auth]
tenant_id = "tenant-1"
client_id = "client-1"
client_secret = %q

[site]
hostname = "contoso.sharepoint.com"
site_path = "sites/Team"
folder = "Reports"
file_name = "test.csv"

[output]
json_dir = %q
download_dir = %q

[network]
graph_url = %q
authority_url = %q
`, secret, ft.jsonDir(), ft.downloadDir(), ft.graph.URL, ft.authority.URL)

	path := filepath.Join(ft.dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (ft *fakeTenant) readJSON(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(ft.jsonDir(), name))
	require.NoError(t, err)

	return string(data)
}

// isolateCLIEnv clears every variable config resolution reads and runs the
// test from an empty directory so no stray .env is picked up.
func isolateCLIEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		config.EnvConfig, config.EnvEnvFile, config.EnvTenantID, config.EnvClientID,
		config.EnvClientSecret, config.EnvBaseURL, config.EnvSitePath, config.EnvLegacySitePath,
	} {
		t.Setenv(k, "")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Chdir(t.TempDir())
}

// runCLI executes a fresh root command and returns its stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}
