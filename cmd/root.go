package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comicgrab/config"
	"comicgrab/downloader"
	"comicgrab/models"
	"comicgrab/search"
	"comicgrab/sites"
)

var rootCmd = &cobra.Command{
	Use:   "comicgrab <query>",
	Short: "Search getcomics.info and download matching comics",
	Long: `comicgrab searches getcomics.info by keyword, resolves the download
link behind each result, and downloads the files to a target directory.
Results can be limited by count and by a "newer than" publication date.`,
	Version:      config.Version,
	Args:         cobra.ExactArgs(1),
	RunE:         run,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.IntP("results", "r", 0, "number of results to retrieve (0 = unbounded)")
	flags.StringP("newer", "n", "", "only fetch results published on or after this date (e.g. 21-11-2023)")
	flags.StringP("output", "o", "./", "destination directory for downloads")
	flags.String("scratch", "", "staging directory for in-flight downloads (default: OS temp dir)")
	flags.BoolP("confirm", "c", false, "ask before each download")
	flags.BoolP("verbose", "v", false, "verbose logging")
	flags.IntP("workers", "w", 1, "concurrent downloads (1 = sequential)")
	flags.BoolP("list", "l", false, "list discovered pages and links without downloading")

	config.InitViper(viper.GetViper())
	for _, name := range []string{"results", "newer", "output", "scratch", "confirm", "verbose", "workers", "list"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			log.Fatalf("[CLI] Failed to bind flag %s: %v", name, err)
		}
	}
}

func run(cmd *cobra.Command, args []string) error {
	settings := config.FromViper(viper.GetViper(), args[0])
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if settings.Verbose {
		log.SetFlags(log.LstdFlags)
	} else {
		log.SetOutput(io.Discard)
	}

	// SIGINT cancels the context: in-flight temp files are abandoned,
	// completed downloads stay on disk.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := downloader.NewHTTPClient()
	site := sites.NewGetComics(client, settings.Verbose)
	query := search.New(site, models.SearchQuery{
		Term:    settings.Query,
		Results: settings.Results,
		Cutoff:  settings.Cutoff,
	}, settings.Verbose)

	pages, discovery := query.FindPages(ctx)
	if ctx.Err() != nil {
		fmt.Println("Interrupted.")
		return nil
	}
	if pages.Len() == 0 {
		fmt.Printf("No comics found for '%s'.\n", settings.Query)
		reportFailures(discovery)
		return nil
	}
	fmt.Printf("%d pages found containing matching comics.\n", pages.Len())

	links, resolution := query.ResolveLinks(ctx, pages)
	if ctx.Err() != nil {
		fmt.Println("Interrupted.")
		return nil
	}

	if settings.ListOnly {
		printListing(pages, links)
		return nil
	}

	engine := downloader.NewEngine(client, settings.OutputDir, settings.ScratchDir, settings.Workers == 1)
	manager := downloader.NewManager(downloader.ManagerConfig{
		Engine:  engine,
		Confirm: settings.Confirm,
		Workers: settings.Workers,
	})
	report := manager.DownloadAll(ctx, links)

	printSummary(report)
	reportFailures(discovery)
	reportFailures(resolution)
	if ctx.Err() != nil {
		fmt.Println("Interrupted; completed downloads were kept.")
	}
	return nil
}

// printListing mirrors the dry-run output: everything that was found,
// nothing downloaded.
func printListing(pages *models.OrderedMap[models.PageResult], links *models.OrderedMap[models.DownloadLink]) {
	fmt.Println("\nPage links found:")
	i := 0
	pages.Each(func(url string, page models.PageResult) bool {
		i++
		fmt.Printf("%d) %s: %s\n", i, page.Title, url)
		return true
	})

	fmt.Println("\nComic links found:")
	i = 0
	links.Each(func(url string, link models.DownloadLink) bool {
		i++
		fmt.Printf("%d) %s: %s\n", i, link.Title, url)
		return true
	})
}

func printSummary(report *downloader.Report) {
	fmt.Printf("\nDownloaded %d file(s).\n", len(report.Completed))
	for _, path := range report.Completed {
		fmt.Printf("  %s\n", path)
	}
	if len(report.Manual) > 0 {
		fmt.Printf("%d link(s) need manual download (see above).\n", len(report.Manual))
	}
	if len(report.Declined) > 0 {
		fmt.Printf("%d item(s) skipped.\n", len(report.Declined))
	}
	if len(report.Failed) > 0 {
		fmt.Printf("%d download(s) failed:\n", len(report.Failed))
		for _, f := range report.Failed {
			fmt.Printf("  %s: %v\n", f.URL, f.Err)
		}
	}
}

func reportFailures(report *search.Report) {
	for _, f := range report.Failures {
		fmt.Printf("Skipped %s: %v\n", f.URL, f.Err)
	}
}
