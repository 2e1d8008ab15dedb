package downloader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicgrab/models"
)

func linkSet(links ...models.DownloadLink) *models.OrderedMap[models.DownloadLink] {
	m := models.NewOrderedMap[models.DownloadLink]()
	for _, l := range links {
		m.Set(l.URL, l)
	}
	return m
}

func TestDownloadAllSurfacesMirrorsWithoutFetching(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(ManagerConfig{
		Engine: NewEngine(NewHTTPClient(), t.TempDir(), t.TempDir(), false),
		Output: &out,
	})

	report := m.DownloadAll(context.Background(), linkSet(models.DownloadLink{
		URL:   "_MEDIAFIRE_https://mediafire.com/f/abc",
		Title: "Saga #1",
		Kind:  models.LinkMirror,
	}))

	assert.Equal(t, []string{"https://mediafire.com/f/abc"}, report.Manual)
	assert.Empty(t, report.Completed)
	assert.Empty(t, report.Failed)
	assert.Contains(t, out.String(), "Please download from the following Mediafire link:\nhttps://mediafire.com/f/abc")
}

func TestDownloadAllConfirmationGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "bytes")
	}))
	defer srv.Close()

	var out bytes.Buffer
	m := NewManager(ManagerConfig{
		Engine:  NewEngine(NewHTTPClient(), t.TempDir(), t.TempDir(), false),
		Confirm: true,
		Input:   strings.NewReader("n\n\n"),
		Output:  &out,
	})

	declined := models.DownloadLink{URL: srv.URL + "/skip-me.cbz", Title: "Skip Me", Kind: models.LinkDirect}
	accepted := models.DownloadLink{URL: srv.URL + "/take-me.cbz", Title: "Take Me", Kind: models.LinkDirect}

	report := m.DownloadAll(context.Background(), linkSet(declined, accepted))

	assert.Equal(t, []string{declined.URL}, report.Declined)
	require.Len(t, report.Completed, 1)
	assert.Contains(t, report.Completed[0], "take-me.cbz")
	assert.Contains(t, out.String(), "Download 'Skip Me'? [Y/n]: ")
}

func TestDownloadAllFailureDoesNotAbortBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.cbz" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "bytes")
	}))
	defer srv.Close()

	m := NewManager(ManagerConfig{
		Engine: NewEngine(NewHTTPClient(), t.TempDir(), t.TempDir(), false),
		Output: &bytes.Buffer{},
	})

	report := m.DownloadAll(context.Background(), linkSet(
		models.DownloadLink{URL: srv.URL + "/missing.cbz", Title: "Gone", Kind: models.LinkDirect},
		models.DownloadLink{URL: srv.URL + "/here.cbz", Title: "Here", Kind: models.LinkDirect},
	))

	require.Len(t, report.Failed, 1)
	assert.Equal(t, srv.URL+"/missing.cbz", report.Failed[0].URL)
	require.Len(t, report.Completed, 1)
	assert.Contains(t, report.Completed[0], "here.cbz")
}

func TestDownloadAllWorkerPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "bytes")
	}))
	defer srv.Close()

	destDir := t.TempDir()
	m := NewManager(ManagerConfig{
		Engine:  NewEngine(NewHTTPClient(), destDir, t.TempDir(), false),
		Workers: 3,
		Output:  &bytes.Buffer{},
	})

	var links []models.DownloadLink
	var want []string
	for i := 0; i < 6; i++ {
		links = append(links, models.DownloadLink{
			URL:   fmt.Sprintf("%s/comic-%d.cbz", srv.URL, i),
			Title: fmt.Sprintf("Comic %d", i),
			Kind:  models.LinkDirect,
		})
		want = append(want, fmt.Sprintf("comic-%d.cbz", i))
	}

	report := m.DownloadAll(context.Background(), linkSet(links...))

	require.Empty(t, report.Failed)
	var got []string
	for _, dest := range report.Completed {
		got = append(got, strings.TrimPrefix(dest, destDir+"/"))
	}
	assert.ElementsMatch(t, want, got)
}

func TestDownloadAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(ManagerConfig{
		Engine: NewEngine(NewHTTPClient(), t.TempDir(), t.TempDir(), false),
		Output: &bytes.Buffer{},
	})

	report := m.DownloadAll(ctx, linkSet(models.DownloadLink{
		URL:  "https://example.com/never.cbz",
		Kind: models.LinkDirect,
	}))

	// A cancelled run records nothing; it is not a task failure.
	assert.Empty(t, report.Completed)
	assert.Empty(t, report.Failed)
}
