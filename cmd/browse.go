package cmd

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spiffcs/storefront/internal/cart"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/tui"
)

// NewCmdBrowse creates the browse command.
func NewCmdBrowse(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively (same as root storefront)",
		Long: `Opens the interactive catalog browser. Pages load as you move
forward and stay cached when you move back. Products can be added to a
cart that lives for the rest of the session.

Without a terminal, prints the catalog like 'storefront products'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, opts)
		},
	}

	addCatalogFlags(cmd, opts)
	return cmd
}

func runBrowse(cmd *cobra.Command, opts *Options) error {
	if !shouldUseTUI(opts) {
		return runProducts(cmd, opts)
	}

	// The browser owns the terminal
	log.Initialize(opts.Verbosity, io.Discard)

	shop, err := loadShop()
	if err != nil {
		return err
	}
	user, err := shop.verifySession(cmd.Context())
	if err != nil {
		return err
	}

	products := catalog.New(shop.pageFetcher(opts.NoCache))
	return tui.RunCatalog(cmd.Context(), products, cart.New(),
		tui.WithStartPage(opts.Page),
		tui.WithUsername(user.Name),
		tui.WithImageBaseURL(shop.cfg.GetImageBaseURL()),
	)
}
