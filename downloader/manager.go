package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"comicgrab/models"
)

// Failure records one task that could not be completed.
type Failure struct {
	URL string
	Err error
}

// Report is the batch outcome of one download run. A failed task never
// aborts its siblings, so every link ends up in exactly one bucket.
type Report struct {
	Completed []string  // final destination paths
	Manual    []string  // mirror URLs surfaced for manual download
	Declined  []string  // skipped via the confirmation gate
	Failed    []Failure
}

// ManagerConfig configures a download batch.
type ManagerConfig struct {
	Engine  *Engine
	Confirm bool      // ask before each direct download
	Workers int       // concurrent downloads, 1 = strictly sequential
	Input   io.Reader // confirmation prompt input, defaults to stdin
	Output  io.Writer // user-facing output, defaults to stdout
}

// Manager walks an ordered link set and materializes every direct link
// through the engine, surfacing mirror links as manual instructions.
type Manager struct {
	engine  *Engine
	confirm bool
	workers int
	in      *bufio.Reader
	out     io.Writer
}

// NewManager creates a manager from the given configuration.
func NewManager(cfg ManagerConfig) *Manager {
	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		engine:  cfg.Engine,
		confirm: cfg.Confirm,
		workers: workers,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// DownloadAll processes every link in insertion order. Mirror links and
// the confirmation gate are handled up front (prompting has to stay
// sequential); the remaining direct tasks are then fetched, optionally
// across a bounded worker pool. Tasks are independent: one failure is
// recorded and the batch moves on.
func (m *Manager) DownloadAll(ctx context.Context, links *models.OrderedMap[models.DownloadLink]) *Report {
	report := &Report{}
	var queue []models.DownloadLink

	links.Each(func(key string, link models.DownloadLink) bool {
		if ctx.Err() != nil {
			return false
		}
		if link.Kind == models.LinkMirror {
			raw := MirrorURL(link.URL)
			fmt.Fprintf(m.out, "Please download from the following Mediafire link:\n%s\n", raw)
			report.Manual = append(report.Manual, raw)
			return true
		}
		if m.confirm && !m.confirmTask(link) {
			log.Printf("[Downloader] Skipped by user: %s", link.Title)
			report.Declined = append(report.Declined, link.URL)
			return true
		}
		queue = append(queue, link)
		return true
	})

	if len(queue) == 0 {
		return report
	}

	if m.workers == 1 {
		for _, link := range queue {
			if ctx.Err() != nil {
				break
			}
			m.fetchOne(ctx, link, report, nil)
		}
		return report
	}

	var mu sync.Mutex
	jobs := make(chan models.DownloadLink)
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range jobs {
				if ctx.Err() != nil {
					continue
				}
				m.fetchOne(ctx, link, report, &mu)
			}
		}()
	}
	for _, link := range queue {
		jobs <- link
	}
	close(jobs)
	wg.Wait()

	return report
}

func (m *Manager) fetchOne(ctx context.Context, link models.DownloadLink, report *Report, mu *sync.Mutex) {
	log.Printf("[Downloader] Downloading %s from %s", link.Title, link.URL)

	dest, err := m.engine.Fetch(ctx, link)

	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	if err != nil {
		// A cancelled run is not a task failure; the temp file is
		// simply abandoned.
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		log.Printf("[Downloader] Failed to download %s: %v", link.URL, err)
		report.Failed = append(report.Failed, Failure{URL: link.URL, Err: err})
		return
	}

	log.Printf("[Downloader] Completed %s", dest)
	report.Completed = append(report.Completed, dest)
}

// confirmTask asks the user whether to download one item. Anything but
// an explicit no counts as yes.
func (m *Manager) confirmTask(link models.DownloadLink) bool {
	fmt.Fprintf(m.out, "Download '%s'? [Y/n]: ", link.Title)
	answer, err := m.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer != "n" && answer != "no"
}
