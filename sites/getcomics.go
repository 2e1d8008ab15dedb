package sites

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"comicgrab/dates"
	"comicgrab/downloader"
	"comicgrab/models"
)

const getComicsBase = "https://getcomics.info"

// MirrorPrefix marks the map key of a third-party mirror link so
// downstream stages can recognize it without re-inspecting Kind.
const MirrorPrefix = "_MEDIAFIRE_"

// GetComics scrapes getcomics.info: paginated keyword search plus
// per-page download link extraction with a fixed source priority
// (native "Download Now" button, then "Main Server" links, then a
// Mediafire mirror as last resort).
type GetComics struct {
	base    string
	client  *downloader.HTTPClient
	verbose bool
}

var _ Site = (*GetComics)(nil)

// NewGetComics creates the getcomics.info adapter.
func NewGetComics(client *downloader.HTTPClient, verbose bool) *GetComics {
	return &GetComics{base: getComicsBase, client: client, verbose: verbose}
}

func (g *GetComics) Name() string {
	return "getcomics"
}

func (g *GetComics) searchURL(term string, page int) string {
	return fmt.Sprintf("%s/page/%d?s=%s", g.base, page, url.QueryEscape(term))
}

// Search fetches one page of search results. A 404 means we paginated
// past the last page and is reported as exhaustion, not an error.
func (g *GetComics) Search(ctx context.Context, term string, page int) ([]models.PageResult, error) {
	var results []models.PageResult
	var status int

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(30 * time.Second)
	c.UserAgent = downloader.UserAgent

	c.OnResponse(func(r *colly.Response) {
		if _, err := downloader.DecompressCollyResponse(r); err != nil {
			log.Printf("[GetComics] Failed to decompress response: %v", err)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})
	c.OnHTML("article", func(e *colly.HTMLElement) {
		link := e.ChildAttr("h1.post-title a", "href")
		title := strings.TrimSpace(e.ChildText("h1.post-title a"))
		if link == "" || title == "" {
			return
		}
		results = append(results, models.PageResult{
			URL:       link,
			Title:     title,
			Published: g.parsePostDate(e.ChildText("time")),
		})
	})

	pageURL := g.searchURL(term, page)
	if g.verbose {
		log.Printf("[GetComics] Opening page %s", pageURL)
	}
	if err := c.Visit(pageURL); err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, &downloader.NetworkError{URL: pageURL, Err: err}
	}
	return results, nil
}

// parsePostDate turns a result's visible date (e.g. "November 21,
// 2023") into a calendar date. A missing or unparseable date yields the
// zero time; the result is then never treated as older than a cutoff.
func (g *GetComics) parsePostDate(raw string) time.Time {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return time.Time{}
	}
	d, err := dates.Resolve(raw)
	if err != nil {
		return time.Time{}
	}
	return d
}

// ExtractLinks visits a hosting page and extracts its download links.
func (g *GetComics) ExtractLinks(ctx context.Context, pageURL, title string) ([]models.DownloadLink, error) {
	doc, err := g.client.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	// A real hosting page always carries its post inside an article
	// element; anything else is an error page in disguise.
	if doc.Find("article").Length() == 0 {
		return nil, &ParseError{URL: pageURL, Missing: "article content"}
	}
	return extractGetComicsLinks(doc, title), nil
}

// extractGetComicsLinks applies the fixed source priority to a parsed
// hosting page. Outcomes are mutually exclusive per page: a native
// download beats any number of main-server links, which beat the
// Mediafire mirror. No match means no entry for this page.
func extractGetComicsLinks(doc *goquery.Document, title string) []models.DownloadLink {
	if href, ok := doc.Find(`a[title="Download Now"]`).First().Attr("href"); ok && href != "" {
		return []models.DownloadLink{{URL: href, Title: title, Kind: models.LinkDirect}}
	}

	var links []models.DownloadLink
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "Main Server" {
			return
		}
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, models.DownloadLink{URL: href, Title: title, Kind: models.LinkDirect})
		}
	})
	if len(links) > 0 {
		return links
	}

	if href, ok := doc.Find(`a[title="MEDIAFIRE"]`).First().Attr("href"); ok && href != "" {
		return []models.DownloadLink{{URL: MirrorPrefix + href, Title: title, Kind: models.LinkMirror}}
	}

	return nil
}
