package fedidxcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve indexed symlinks to their targets",
		Args:  cobra.MinimumNArgs(1),
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

			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderResolutions(f.Resolve(args), opts.JSON))
			return nil
		},
	}
}
