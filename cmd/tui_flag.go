package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spiffcs/storefront/internal/tui"
)

// tuiFlag is a tri-state pflag.Value: unset (auto), true or false.
// A bare --tui means true.
type tuiFlag struct {
	target **bool
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{target: &opts.TUI}
}

func (f *tuiFlag) String() string {
	if f.target == nil || *f.target == nil {
		return "auto"
	}
	return strconv.FormatBool(**f.target)
}

func (f *tuiFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto", "":
		*f.target = nil
		return nil
	case "yes", "on":
		s = "true"
	case "no", "off":
		s = "false"
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	*f.target = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI decides between the TUI and plain output. Verbose logging
// always wins so log lines stay readable.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
