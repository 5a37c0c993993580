package fedidxcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fedindex/internal/core/query"
)

func newSearchCommand() *cobra.Command {
	opts := &Options{}
	var depth int
	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search indexed entries by path component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := optionsFrom(cmd)
			if root == nil {
				return fmt.Errorf("options missing")
			}
			root.ContentType = opts.ContentType
			root.Extension = opts.Extension
			root.MinSize = opts.MinSize
			root.MaxSize = opts.MaxSize
			root.Limit = opts.Limit
			if err := root.Prepare(); err != nil {
				return err
			}

			f, err := openIndex(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer f.Close()

			resp, err := f.Search(args[0], query.Options{
				Limit: root.Limit,
				Filters: query.Filters{
					ContentType: root.ContentType,
					Extension:   root.Extension,
					MaxDepth:    depth,
					MinSize:     root.minSizeBytes,
					MaxSize:     root.maxSizeBytes,
				},
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderSearch(resp, root.JSON))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ContentType, "type", "t", "", "filter by content type (code|document|image|...)")
	cmd.Flags().StringVarP(&opts.Extension, "ext", "e", "", "filter by file extension")
	cmd.Flags().StringVar(&opts.MinSize, "min-size", "", "minimum file size (e.g. 10KB)")
	cmd.Flags().StringVar(&opts.MaxSize, "max-size", "", "maximum file size (e.g. 5MB)")
	cmd.Flags().IntVarP(&depth, "depth", "D", 0, "only match entries at or above this depth")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "maximum number of results")
	return cmd
}
