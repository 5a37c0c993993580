package fedidxcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTreeCommand() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Render an indexed subtree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			sub := ""
			if len(args) == 1 {
				sub = args[0]
			}

			f, err := openIndex(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer f.Close()

			node, err := f.Tree(sub, depth)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderTree(node, opts.JSON))
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "D", 3, "maximum tree depth to render")
	return cmd
}
