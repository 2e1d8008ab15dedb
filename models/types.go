package models

import "time"

// LinkKind classifies how a download link can be materialized.
// Direct links are fetched by the download engine itself; mirror links
// point at third-party file lockers that require manual user action.
type LinkKind int

const (
	LinkDirect LinkKind = iota
	LinkMirror
)

func (k LinkKind) String() string {
	if k == LinkMirror {
		return "mirror"
	}
	return "direct"
}

// SearchQuery is the immutable input for one search run.
// Results == 0 means unbounded. A zero Cutoff means no date filter.
type SearchQuery struct {
	Term    string    // user-supplied search term
	Results int       // desired result count, 0 = unbounded
	Cutoff  time.Time // discard results published before this date
}

// HasCutoff reports whether a date filter is active.
func (q SearchQuery) HasCutoff() bool {
	return !q.Cutoff.IsZero()
}

// PageResult is one hosting page discovered from the search results.
// URL is the unique key; Title is informational and may repeat across
// pages. Published is the page's publication date, zero when the site
// did not provide one (or it could not be parsed).
type PageResult struct {
	URL       string
	Title     string
	Published time.Time
}

// DownloadLink is one resolved download target. URL is the unique key;
// for mirror links it carries the distinguishing marker prefix so later
// stages can recognize it without re-inspecting Kind.
type DownloadLink struct {
	URL   string
	Title string
	Kind  LinkKind
}

// DownloadTask pairs a resolved link with the destination path the
// engine computed for it. Destination is recomputed per collision
// check just before streaming starts, never stored across runs.
type DownloadTask struct {
	Link        DownloadLink
	Destination string
}
