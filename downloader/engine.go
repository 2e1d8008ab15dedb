package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"comicgrab/models"
	"comicgrab/parser"
)

// Engine streams direct download links to disk. Files are staged in a
// scratch directory and only renamed onto their final path once the
// stream completed, so an interrupted download never leaves a partial
// file at the destination.
type Engine struct {
	client       *HTTPClient
	destDir      string
	scratchDir   string
	showProgress bool
}

// NewEngine creates a download engine writing into destDir, staging
// temporary files in scratchDir (the OS temp directory when empty).
func NewEngine(client *HTTPClient, destDir, scratchDir string, showProgress bool) *Engine {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Engine{
		client:       client,
		destDir:      destDir,
		scratchDir:   scratchDir,
		showProgress: showProgress,
	}
}

// MirrorURL returns the raw third-party URL embedded in a marked mirror
// link, for surfacing to the user.
func MirrorURL(marked string) string {
	if idx := strings.Index(marked, "http"); idx >= 0 {
		return marked[idx:]
	}
	return marked
}

// Fetch downloads one direct link and returns the final path it was
// published to. The destination name is derived from the URL's trailing
// path segment, sanitized and made collision-free against the
// destination directory just before streaming starts.
//
// If a file appears at the chosen destination while the stream is in
// flight, the final rename still proceeds; last write wins. Accepted as
// a known limitation.
func (e *Engine) Fetch(ctx context.Context, link models.DownloadLink) (string, error) {
	if link.Kind == models.LinkMirror {
		return "", fmt.Errorf("mirror link %s must be downloaded manually", MirrorURL(link.URL))
	}

	task := models.DownloadTask{
		Link:        link,
		Destination: parser.UniquePath(filepath.Join(e.destDir, destinationName(link.URL))),
	}

	resp, err := e.client.Stream(ctx, link.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(e.scratchDir, "comicgrab-*")
	if err != nil {
		return "", &FilesystemError{Path: e.scratchDir, Err: err}
	}

	var dst io.Writer = tmp
	if e.showProgress {
		bar := e.progressBar(resp.ContentLength, filepath.Base(task.Destination))
		dst = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		// Abandon the staged file in the scratch directory; the
		// destination was never created.
		tmp.Close()
		return "", &NetworkError{URL: link.URL, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return "", &FilesystemError{Path: tmp.Name(), Err: err}
	}

	if err := os.Rename(tmp.Name(), task.Destination); err != nil {
		return "", &FilesystemError{Path: task.Destination, Err: err}
	}

	return task.Destination, nil
}

// destinationName derives a safe filename from the trailing path
// segment of a download URL.
func destinationName(rawURL string) string {
	segment := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		// url.Parse already percent-decodes the path.
		segment = path.Base(u.Path)
	} else if idx := strings.LastIndex(rawURL, "/"); idx >= 0 {
		segment = rawURL[idx+1:]
		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}
	}

	name := parser.Sanitize(segment)
	if name == "" || name == "." {
		name = "download"
	}
	return name
}

func (e *Engine) progressBar(total int64, name string) *progressbar.ProgressBar {
	sizeText := "unknown size"
	if total > 0 {
		sizeText = parser.FormatBytes(total)
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading '%s' (%s)", name, sizeText)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
