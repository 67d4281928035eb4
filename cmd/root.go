package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Terminal storefront for the shop API",
		Long: `A terminal client for the shop: sign in, page through the product
catalog and build up a cart.

Run without a subcommand to open the interactive catalog browser.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Browse flags on the root command so `storefront` and `storefront browse` work identically
	addCatalogFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdBrowse(opts))
	rootCmd.AddCommand(NewCmdProducts(opts))
	rootCmd.AddCommand(NewCmdLogin())
	rootCmd.AddCommand(NewCmdRegister())
	rootCmd.AddCommand(NewCmdLogout())
	rootCmd.AddCommand(NewCmdWhoami())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
