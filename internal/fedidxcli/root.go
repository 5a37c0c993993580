package fedidxcli

import (
	"context"

	"github.com/spf13/cobra"

	"fedindex/internal/core/scan"
	"fedindex/internal/federation"
	"fedindex/internal/version"
)

func NewRootCommand() *cobra.Command {
	opts := newDefaultOptions()
	cmd := &cobra.Command{
		Use:   "fedidx",
		Short: "Directory federation index and search tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version.String()
	cmd.InitDefaultVersionFlag()
	if f := cmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
	}

	withOptionsContext(cmd, opts)
	bindFlags(cmd, opts)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts := optionsFrom(cmd); opts != nil {
			return opts.Prepare()
		}
		return nil
	}

	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newTreeCommand())
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newWatchCommand())
	return cmd
}

func federationConfig(opts *Options) federation.Config {
	return federation.Config{
		Root:             opts.Root,
		MaxDepth:         opts.MaxDepth,
		MaxEntries:       opts.MaxEntries,
		ExcludePatterns:  opts.ExcludeGlobs,
		SymlinkPolicy:    scan.Policy(opts.SymlinkPolicy),
		RespectGitignore: opts.Gitignore,
	}
}

// openIndex builds the in-memory index for one-shot commands: construct,
// full scan, no watcher or refresher.
func openIndex(ctx context.Context, opts *Options) (*federation.Index, error) {
	f, err := federation.New(federationConfig(opts))
	if err != nil {
		return nil, err
	}
	if _, err := f.FullScan(ctx); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
