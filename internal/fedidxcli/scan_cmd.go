package fedidxcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory tree and report statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			if len(args) == 1 {
				opts.Root = args[0]
			}

			f, err := openIndex(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer f.Close()

			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderStats(f.Stats(), opts.JSON))
			return nil
		},
	}
}
