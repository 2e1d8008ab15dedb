package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicgrab/models"
	"comicgrab/search"
)

// fakeSite serves canned search pages and link sets so discovery and
// resolution logic can be driven without a network.
type fakeSite struct {
	pages       map[int][]models.PageResult
	searchErr   map[int]error
	links       map[string][]models.DownloadLink
	linkErr     map[string]error
	searchCalls []int
}

func (f *fakeSite) Name() string { return "fake" }

func (f *fakeSite) Search(_ context.Context, _ string, page int) ([]models.PageResult, error) {
	f.searchCalls = append(f.searchCalls, page)
	if err, ok := f.searchErr[page]; ok {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeSite) ExtractLinks(_ context.Context, pageURL, title string) ([]models.DownloadLink, error) {
	if err, ok := f.linkErr[pageURL]; ok {
		return nil, err
	}
	links := f.links[pageURL]
	for i := range links {
		links[i].Title = title
	}
	return links, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func page(n int, published time.Time) models.PageResult {
	return models.PageResult{
		URL:       fmt.Sprintf("https://example.com/comic-%d", n),
		Title:     fmt.Sprintf("Comic %d", n),
		Published: published,
	}
}

func TestFindPagesStopsAtFirstCutoffViolation(t *testing.T) {
	// Newest-first stream; the 2022 result ends discovery even though
	// a later result would satisfy the cutoff again.
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {
				page(1, day(2023, time.June, 1)),
				page(2, day(2023, time.May, 1)),
				page(3, day(2022, time.December, 1)),
				page(4, day(2023, time.April, 1)),
			},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x", Cutoff: day(2023, time.January, 1)}, false)

	pages, report := q.FindPages(context.Background())

	assert.Equal(t, 2, pages.Len())
	assert.Equal(t, []string{
		"https://example.com/comic-1",
		"https://example.com/comic-2",
	}, pages.Keys())
	assert.Empty(t, report.Failures)
	assert.Equal(t, []int{1}, site.searchCalls)
}

func TestFindPagesUnknownDateDoesNotTriggerCutoff(t *testing.T) {
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {
				page(1, day(2023, time.June, 1)),
				page(2, time.Time{}), // site gave no parseable date
				page(3, day(2023, time.May, 1)),
			},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x", Cutoff: day(2023, time.January, 1)}, false)

	pages, _ := q.FindPages(context.Background())
	assert.Equal(t, 3, pages.Len())
}

func TestFindPagesHonorsDesiredCount(t *testing.T) {
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {page(1, time.Time{}), page(2, time.Time{})},
			2: {page(3, time.Time{}), page(4, time.Time{})},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x", Results: 2}, false)

	pages, _ := q.FindPages(context.Background())

	assert.Equal(t, 2, pages.Len())
	assert.Equal(t, []string{
		"https://example.com/comic-1",
		"https://example.com/comic-2",
	}, pages.Keys())
	// The desired count filled on page one; page two is never fetched.
	assert.Equal(t, []int{1}, site.searchCalls)
}

func TestFindPagesStopsOnExhaustion(t *testing.T) {
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {page(1, time.Time{}), page(2, time.Time{})},
			// page 2 yields nothing
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, _ := q.FindPages(context.Background())

	assert.Equal(t, 2, pages.Len())
	assert.Equal(t, []int{1, 2}, site.searchCalls)
}

func TestFindPagesSkipsFailedPage(t *testing.T) {
	site := &fakeSite{
		searchErr: map[int]error{1: errors.New("boom")},
		pages: map[int][]models.PageResult{
			2: {page(1, time.Time{})},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, report := q.FindPages(context.Background())

	assert.Equal(t, 1, pages.Len())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []int{1, 2, 3}, site.searchCalls)
}

func TestFindPagesGivesUpAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	site := &fakeSite{
		searchErr: map[int]error{1: boom, 2: boom, 3: boom, 4: boom},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, report := q.FindPages(context.Background())

	assert.Equal(t, 0, pages.Len())
	assert.Len(t, report.Failures, 3)
	assert.Equal(t, []int{1, 2, 3}, site.searchCalls)
}

func TestFindPagesDeduplicatesByURL(t *testing.T) {
	dup := page(1, time.Time{})
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {dup, dup},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, _ := q.FindPages(context.Background())
	assert.Equal(t, 1, pages.Len())
}

func TestResolveLinksCollectsPerPageOutcomes(t *testing.T) {
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {page(1, time.Time{}), page(2, time.Time{}), page(3, time.Time{})},
		},
		links: map[string][]models.DownloadLink{
			"https://example.com/comic-1": {
				{URL: "https://dl.example.com/a.cbz", Kind: models.LinkDirect},
				{URL: "https://dl.example.com/b.cbz", Kind: models.LinkDirect},
			},
			// comic-3 yields no links
		},
		linkErr: map[string]error{
			"https://example.com/comic-2": errors.New("boom"),
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, _ := q.FindPages(context.Background())
	links, report := q.ResolveLinks(context.Background(), pages)

	assert.Equal(t, []string{
		"https://dl.example.com/a.cbz",
		"https://dl.example.com/b.cbz",
	}, links.Keys())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "https://example.com/comic-2", report.Failures[0].URL)
	assert.Equal(t, []string{"https://example.com/comic-3"}, report.NoLinks)

	// Links carry the title of the page they came from.
	link, ok := links.Get("https://dl.example.com/a.cbz")
	require.True(t, ok)
	assert.Equal(t, "Comic 1", link.Title)
}

func TestResolveLinksDeduplicatesByURL(t *testing.T) {
	shared := models.DownloadLink{URL: "https://dl.example.com/same.cbz", Kind: models.LinkDirect}
	site := &fakeSite{
		pages: map[int][]models.PageResult{
			1: {page(1, time.Time{}), page(2, time.Time{})},
		},
		links: map[string][]models.DownloadLink{
			"https://example.com/comic-1": {shared},
			"https://example.com/comic-2": {shared},
		},
	}
	q := search.New(site, models.SearchQuery{Term: "x"}, false)

	pages, _ := q.FindPages(context.Background())
	links, _ := q.ResolveLinks(context.Background(), pages)

	assert.Equal(t, 1, links.Len())
}
