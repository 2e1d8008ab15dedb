package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"comicgrab/models"
	"comicgrab/parser"
	"comicgrab/sites"
)

// A page fetch can fail transiently without dooming the query, but a
// site that errors on every page would otherwise keep an unbounded
// query paginating forever.
const maxConsecutiveFailures = 3

// pageInterval spaces successive requests against the site.
const pageInterval = 500 * time.Millisecond

// Failure records one page that could not be processed.
type Failure struct {
	URL string
	Err error
}

// Report collects the per-item outcomes of a soft-fail batch so
// callers can account for skipped pages instead of digging through
// logs.
type Report struct {
	Failures []Failure
	NoLinks  []string // pages that yielded no recognizable download links
}

// Query drives one search run against a site adapter: paginated page
// discovery followed by per-page link resolution. All state is owned
// by the single call chain for the duration of the run.
type Query struct {
	site    sites.Site
	params  models.SearchQuery
	verbose bool
}

// New creates a query runner. params is treated as immutable.
func New(site sites.Site, params models.SearchQuery, verbose bool) *Query {
	return &Query{site: site, params: params, verbose: verbose}
}

// FindPages paginates search results and accumulates hosting pages
// keyed by URL, in the site's native newest-first order. Discovery
// stops when a page comes back empty (exhaustion), when the desired
// result count is reached, or - with a date cutoff set - at the first
// result older than the cutoff: pages are sorted newest-first
// site-wide, so nothing after it can satisfy the filter.
//
// A fetch or parse failure on one page is recorded and discovery moves
// to the next page; only a run of consecutive failures aborts it.
func (q *Query) FindPages(ctx context.Context) (*models.OrderedMap[models.PageResult], *Report) {
	pages := models.NewOrderedMap[models.PageResult]()
	report := &Report{}

	limiter := parser.NewRateLimiter(pageInterval)
	defer limiter.Stop()

	consecutive := 0
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			break
		}
		if q.params.Results > 0 && pages.Len() >= q.params.Results {
			break
		}
		if page > 1 {
			limiter.Wait()
		}

		results, err := q.site.Search(ctx, q.params.Term, page)
		if err != nil {
			consecutive++
			log.Printf("[Search] Results page %d failed: %v", page, err)
			report.Failures = append(report.Failures, Failure{
				URL: fmt.Sprintf("results page %d", page),
				Err: err,
			})
			if consecutive >= maxConsecutiveFailures {
				log.Printf("[Search] Giving up after %d consecutive page failures", consecutive)
				break
			}
			continue
		}
		consecutive = 0

		if len(results) == 0 {
			break // past the last page of results
		}

		stop := false
		for _, r := range results {
			if q.params.HasCutoff() && !r.Published.IsZero() && r.Published.Before(q.params.Cutoff) {
				// First result older than the cutoff ends the whole
				// query, not just this page.
				stop = true
				break
			}
			if q.params.Results > 0 && pages.Len() >= q.params.Results {
				// Overflow beyond the desired count is simply not
				// added.
				continue
			}
			pages.Set(r.URL, r)
		}
		if stop {
			if q.verbose {
				log.Printf("[Search] Reached date cutoff, stopping discovery")
			}
			break
		}
	}

	if q.verbose {
		log.Printf("[Search] %d pages found containing matching comics", pages.Len())
	}
	return pages, report
}

// ResolveLinks visits each discovered page and extracts its download
// links, preserving discovery order and deduplicating by URL. Each link
// carries the originating page's title. A failing page is recorded and
// skipped; the batch continues.
func (q *Query) ResolveLinks(ctx context.Context, pages *models.OrderedMap[models.PageResult]) (*models.OrderedMap[models.DownloadLink], *Report) {
	links := models.NewOrderedMap[models.DownloadLink]()
	report := &Report{}

	limiter := parser.NewRateLimiter(pageInterval)
	defer limiter.Stop()

	first := true
	pages.Each(func(pageURL string, page models.PageResult) bool {
		if ctx.Err() != nil {
			return false
		}
		if !first {
			limiter.Wait()
		}
		first = false

		if q.verbose {
			log.Printf("[Search] Opening page %s", pageURL)
		}
		found, err := q.site.ExtractLinks(ctx, pageURL, page.Title)
		if err != nil {
			log.Printf("[Search] Skipping %s: %v", pageURL, err)
			report.Failures = append(report.Failures, Failure{URL: pageURL, Err: err})
			return true
		}
		if len(found) == 0 {
			if q.verbose {
				log.Printf("[Search] Couldn't find a download link on page %s", pageURL)
			}
			report.NoLinks = append(report.NoLinks, pageURL)
			return true
		}
		for _, l := range found {
			links.Set(l.URL, l)
		}
		return true
	})

	return links, report
}
