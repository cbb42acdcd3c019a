package graph

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The download URL embeds a signature, so it must be redacted in logs.
func TestDownloadURL_LogValuer(t *testing.T) {
	t.Parallel()

	secretURL := DownloadURL("https://contoso.sharepoint.com/_layouts/15/download.aspx?tempauth=secret-token-here")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("download started", "url", secretURL)

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "secret-token-here")
}

func TestDownloadURL_EmptyLogsEmpty(t *testing.T) {
	t.Parallel()

	var empty DownloadURL
	assert.Equal(t, "", empty.LogValue().String())
}

func TestItem_JSONOmitsDownloadURL(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Item{ID: "f", Name: "x.csv", DownloadURL: "https://signed?tempauth=secret"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "tempauth")
	assert.Contains(t, string(data), `"name":"x.csv"`)
}

func TestItem_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file", (&Item{}).Kind())
	assert.Equal(t, "folder", (&Item{IsFolder: true}).Kind())
}

func TestUser_JSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(User{ID: "u1", Name: "Ada", Email: "ada@contoso.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@contoso.com"}`, string(data))
}
