package fedidxcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Scan and print federation statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
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
