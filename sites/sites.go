package sites

import (
	"context"
	"fmt"

	"comicgrab/models"
)

// Site is the narrow adapter between the search pipeline and one
// concrete comic-hosting site. The pipeline (discovery, resolution,
// download) only exercises this capability set, so a markup change is
// contained to the one adapter that knows the selectors.
type Site interface {
	// Name returns the site identifier, e.g. "getcomics".
	Name() string

	// Search fetches one page of search results for term, returning
	// the (url, title, published) triples in the site's native
	// newest-first order. An empty slice with a nil error means the
	// results are exhausted.
	Search(ctx context.Context, term string, page int) ([]models.PageResult, error)

	// ExtractLinks visits one hosting page and returns its download
	// links per the site's fixed source priority. An empty slice with
	// a nil error means the page offers no recognizable links.
	ExtractLinks(ctx context.Context, pageURL, title string) ([]models.DownloadLink, error)
}

// ParseError reports that an expected structure was absent from a
// fetched document.
type ParseError struct {
	URL     string
	Missing string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on %s: missing %s", e.URL, e.Missing)
}
