package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/storefront/config"
	"github.com/spiffcs/storefront/internal/cache"
	"github.com/spiffcs/storefront/internal/format"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the product page cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the product page cache",
		RunE:  runCacheClear,
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE:  runCacheStats,
	}
}

// openPageCache opens the page cache with the configured TTL.
func openPageCache() (*cache.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	ttl, err := cfg.GetPageCacheTTL()
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cache.WithTTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to access cache: %w", err)
	}
	return c, nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	c, err := openPageCache()
	if err != nil {
		return err
	}

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	c, err := openPageCache()
	if err != nil {
		return err
	}

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache statistics:\n")
	fmt.Fprintf(out, "  Directory: %s\n", c.Dir())
	fmt.Fprintf(out, "  Product pages (TTL: %s):\n", c.TTL())
	fmt.Fprintf(out, "    Total: %d\n", stats.Total)
	fmt.Fprintf(out, "    Valid: %d\n", stats.Valid)
	fmt.Fprintf(out, "    Expired: %d\n", stats.Total-stats.Valid)
	fmt.Fprintf(out, "    Size: %d bytes\n", stats.Bytes)
	if !stats.Oldest.IsZero() {
		fmt.Fprintf(out, "    Oldest entry age: %s\n", format.Age(time.Since(stats.Oldest)))
	}
	return nil
}
