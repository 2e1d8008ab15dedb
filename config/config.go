package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"comicgrab/dates"
	"comicgrab/parser"
)

// Settings is the validated runtime configuration for one run. The CLI
// layer owns parsing; the pipeline consumes these as already-validated
// inputs.
type Settings struct {
	Query      string // search term
	Results    int    // desired result count, 0 = unbounded
	Newer      string // raw "newer than" cutoff text, empty = no filter
	Cutoff     time.Time
	OutputDir  string // must exist and be a directory
	ScratchDir string // temp staging area, empty = OS temp dir
	Confirm    bool   // ask before each download
	Verbose    bool
	Workers    int  // concurrent downloads, 1 = sequential
	ListOnly   bool // print pages and links without downloading
}

// FromViper builds Settings from the bound flag/env/config-file values.
func FromViper(v *viper.Viper, query string) Settings {
	return Settings{
		Query:      query,
		Results:    v.GetInt("results"),
		Newer:      v.GetString("newer"),
		OutputDir:  v.GetString("output"),
		ScratchDir: v.GetString("scratch"),
		Confirm:    v.GetBool("confirm"),
		Verbose:    v.GetBool("verbose"),
		Workers:    v.GetInt("workers"),
		ListOnly:   v.GetBool("list"),
	}
}

// Validate resolves and checks everything that must fail before any
// network activity begins: the output directory and the cutoff date.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return errors.New("search term must not be empty")
	}
	if s.Results < 0 {
		return errors.New("results must be zero or positive")
	}
	if s.Workers < 1 {
		s.Workers = 1
	}

	dir, err := parser.ExpandPath(s.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("'%s' does not exist or is not a valid directory", s.OutputDir)
	}
	s.OutputDir = dir

	if s.Newer != "" {
		cutoff, err := dates.Resolve(s.Newer)
		if err != nil {
			return fmt.Errorf("cannot parse cutoff date: %w", err)
		}
		s.Cutoff = cutoff
	}

	return nil
}

// InitViper sets defaults and wires up the optional config file at
// ~/.config/comicgrab/config.yaml plus COMICGRAB_* environment
// overrides. A missing config file is not an error.
func InitViper(v *viper.Viper) {
	v.SetDefault("output", "./")
	v.SetDefault("results", 0)
	v.SetDefault("workers", 1)

	v.SetEnvPrefix("COMICGRAB")
	v.AutomaticEnv()

	if dir, err := parser.ExpandPath("~/.config/comicgrab"); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		_ = v.ReadInConfig()
	}
}
