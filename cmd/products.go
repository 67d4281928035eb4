package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/output"
	"github.com/spiffcs/storefront/internal/tui"
	"golang.org/x/sync/errgroup"
)

// NewCmdProducts creates the products command.
func NewCmdProducts(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Print the product catalog",
		Long: `Loads pages 1 through --page of the product catalog and prints them.

Use --all to keep loading until the last page.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProducts(cmd, opts)
		},
	}

	addCatalogFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Load every page of the catalog")
	return cmd
}

// addCatalogFlags adds the flags shared by the catalog commands.
func addCatalogFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().IntVar(&opts.Page, "page", constants.FirstPage, "Show pages 1 through N")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the on-disk page cache")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI (default: auto-detect)")
}

func runProducts(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	rt := setupRuntime(opts)

	shop, err := loadShop()
	if err != nil {
		return err
	}
	if err := shop.sess.Require(); err != nil {
		return err
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = shop.cfg.DefaultFormat
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	rt.startTUI()
	defer rt.close()

	products, err := loadCatalog(ctx, shop, opts, rt)
	if err != nil {
		return err
	}

	rt.sendEvent(tui.TaskRender, tui.StatusRunning)
	snap := products.Snapshot()
	listing := output.Listing{
		Items:        snap.Items,
		VisiblePage:  snap.VisiblePage,
		LastPage:     snap.LastPage,
		ImageBaseURL: shop.cfg.GetImageBaseURL(),
	}
	rt.sendEvent(tui.TaskRender, tui.StatusComplete, tui.WithItems(len(listing.Items)))
	rt.close()

	return output.NewFormatter(format).Format(listing, cmd.OutOrStdout())
}

// loadCatalog checks the session and loads the requested pages
// concurrently, then keeps loading when --all is set.
func loadCatalog(ctx context.Context, shop *shopContext, opts *Options, rt *cmdRuntime) (*catalog.Cache, error) {
	products := catalog.New(shop.pageFetcher(opts.NoCache))

	rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
	rt.sendEvent(tui.TaskFetch, tui.StatusRunning)

	g, gctx := errgroup.WithContext(ctx)

	var user *model.User
	g.Go(func() error {
		u, err := shop.client.CurrentUser(gctx)
		if err != nil {
			rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
			return err
		}
		user = u
		rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(u.Name))
		return nil
	})

	g.Go(func() error {
		if err := products.InitialLoad(gctx, opts.Page); err != nil {
			rt.sendEvent(tui.TaskFetch, tui.StatusError, tui.WithError(err))
			return fmt.Errorf("failed to load products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := shop.sess.SetUser(user); err != nil {
		log.Warn("failed to update saved user", "error", err)
	}
	log.Info("signed in", "user", user.Name, "email", user.Email)

	if opts.Page > products.LastPage() {
		rt.notice(fmt.Sprintf("Page %d is past the end, showing through page %d", opts.Page, products.LastPage()))
	}

	if opts.All {
		if err := loadRemaining(ctx, products, rt); err != nil {
			return nil, err
		}
	}

	rt.sendEvent(tui.TaskFetch, tui.StatusComplete,
		tui.WithItems(len(products.VisibleItems())),
		tui.WithPages(products.VisiblePage(), products.LastPage()))

	return products, nil
}

// loadRemaining calls LoadMore until the last page is visible.
func loadRemaining(ctx context.Context, products *catalog.Cache, rt *cmdRuntime) error {
	for products.CanLoadMore() {
		if err := products.LoadMore(ctx); err != nil {
			rt.sendEvent(tui.TaskFetch, tui.StatusError, tui.WithError(err))
			if !rt.useTUI {
				log.ProgressDone()
			}
			return fmt.Errorf("failed to load products: %w", err)
		}

		visible, last := products.VisiblePage(), products.LastPage()
		if rt.useTUI {
			rt.sendEvent(tui.TaskFetch, tui.StatusRunning, tui.WithPages(visible, last))
		} else {
			log.Progress("Loading pages: %d/%d", visible, last)
		}
	}
	if !rt.useTUI {
		log.ProgressDone()
	}
	return nil
}
