package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spiffcs/storefront/config"
	"github.com/spiffcs/storefront/internal/cache"
	"github.com/spiffcs/storefront/internal/session"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	cmd := newConfigDumpCmd("config", "Show or manage configuration", `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init      Create a minimal config file
  path      Show config, session and page cache locations
  defaults  Show all default values
  show      Show current merged config (same as bare 'storefront config')
  set       Set a configuration value`, config.Load)

	cmd.AddCommand(
		NewCmdConfigInit(),
		NewCmdConfigPath(),
		NewCmdConfigDefaults(),
		NewCmdConfigShow(),
		NewCmdConfigSet(),
	)

	return cmd
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow() *cobra.Command {
	return newConfigDumpCmd("show", "Show current merged configuration",
		`Show the configuration after merging defaults, the global file, the local file, .env and STOREFRONT_* variables.`,
		config.Load)
}

// NewCmdConfigDefaults creates the config defaults subcommand.
func NewCmdConfigDefaults() *cobra.Command {
	return newConfigDumpCmd("defaults", "Show all default configuration values", `Show a complete configuration with all default values.

Redirect it to start a config file with every option spelled out:
  storefront config defaults > ~/.config/storefront/config.yaml`,
		func() (*config.Config, error) { return config.DefaultConfig(), nil })
}

// newConfigDumpCmd builds a command that prints the config returned by load.
func newConfigDumpCmd(use, short, long string, load func() (*config.Config, error)) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		s, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	var global, local, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minimal config file",
		Long: `Create a minimal config file with starter settings.

Use --global to create ~/.config/storefront/config.yaml (applies everywhere)
Use --local to create ./.storefront.yaml (applies only in this directory)
Without either flag you'll be asked which one to create.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, global, local, force)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config file")
	cmd.Flags().BoolVar(&local, "local", false, "Create the local config file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.MarkFlagsMutuallyExclusive("global", "local")

	return cmd
}

func runConfigInit(cmd *cobra.Command, global, local, force bool) error {
	paths := config.GetConfigPaths()
	out := cmd.OutOrStdout()

	target, location := paths.GlobalPath, "global"
	switch {
	case local:
		target, location = paths.LocalPath, "local"
	case !global:
		p := newPrompter(cmd)
		fmt.Fprintf(p.out, "  [1] Global (%s)\n  [2] Local (%s)\n", paths.GlobalPath, paths.LocalPath)
		choice, err := p.line("Create which config file? [1/2]", "")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
		case "2":
			target, location = paths.LocalPath, "local"
		default:
			return fmt.Errorf("invalid choice: %q (must be 1 or 2)", choice)
		}
	}

	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", target)
	}

	if err := config.SaveTo(target, config.MinimalConfig()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s config file: %s\n", location, target)
	fmt.Fprintln(out, "Set base_url to your shop, then run 'storefront login'.")
	return nil
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config, session and page cache locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigPath(cmd.OutOrStdout())
		},
	}
}

func runConfigPath(w io.Writer) error {
	paths := config.GetConfigPaths()

	fmt.Fprintf(w, "Global:     %s (%s)\n", paths.GlobalPath, existence(paths.GlobalExists))
	fmt.Fprintf(w, "Local:      %s (%s)\n", paths.LocalPath, existence(paths.LocalExists))
	if p, err := session.DefaultPath(); err == nil {
		_, statErr := os.Stat(p)
		fmt.Fprintf(w, "Session:    %s (%s)\n", p, existence(statErr == nil))
	}
	if c, err := cache.New(); err == nil {
		fmt.Fprintf(w, "Page cache: %s\n", c.Dir())
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Load order: defaults -> global -> local -> %s -> STOREFRONT_* environment\n", config.DotEnvPath)
	return nil
}

func existence(ok bool) string {
	if ok {
		return "exists"
	}
	return "not found"
}

// NewCmdConfigSet creates the config set subcommand.
func NewCmdConfigSet() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the global config file. Available keys:
  base_url        - Shop API root (http or https URL)
  image_base_url  - Where product images are served (defaults to base_url)
  default_format  - Default output format (table, json, markdown)
  retries         - Retries for failed read requests
  page_cache_ttl  - How long fetched pages are reused (e.g. 5m, 1h)
  timeout         - Request timeout (e.g. 15s)`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args, local)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Write to ./.storefront.yaml instead of the global file")

	return cmd
}

func runConfigSet(cmd *cobra.Command, args []string, local bool) error {
	path := config.ConfigPath()
	if local {
		path = config.LocalConfigPath()
	}

	// Only the target file is read so merged and environment values are
	// not written back.
	cfg, err := config.LoadFrom(path, "", nil)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.SaveFile(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s in %s.\n", key, value, path)
	return nil
}
