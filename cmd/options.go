package cmd

import "github.com/spiffcs/storefront/internal/constants"

// Options holds the shared command-line options for the storefront CLI.
type Options struct {
	Format    string
	Page      int
	All       bool // Keep loading until the last page
	NoCache   bool // Bypass the on-disk page cache
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Page: constants.FirstPage,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithPage sets the page to show through.
func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

// WithAll loads every page of the catalog.
func WithAll(all bool) Option {
	return func(o *Options) {
		o.All = all
	}
}

// WithNoCache bypasses the on-disk page cache.
func WithNoCache(noCache bool) Option {
	return func(o *Options) {
		o.NoCache = noCache
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
