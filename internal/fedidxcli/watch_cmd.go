package fedidxcli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fedindex/internal/federation"
)

func newWatchCommand() *cobra.Command {
	var debounce string
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Scan, then stream change events until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			if len(args) == 1 {
				opts.Root = args[0]
			}

			cfg := federationConfig(opts)
			cfg.WatchEnabled = true
			cfg.WatchDebounce = watchDebounceDefault
			if debounce != "" {
				d, err := time.ParseDuration(debounce)
				if err != nil {
					return fmt.Errorf("invalid --debounce %q: %w", debounce, err)
				}
				cfg.WatchDebounce = d
			}

			f, err := federation.New(cfg)
			if err != nil {
				return err
			}
			defer f.Close()

			id, events := f.Subscribe()
			defer f.Unsubscribe(id)

			ctx := cmd.Context()
			if err := f.Start(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					_, _ = fmt.Fprint(out, RenderEvent(ev, opts.JSON))
				}
			}
		},
	}

	cmd.Flags().StringVar(&debounce, "debounce", "", "change debounce window (e.g. 500ms)")
	return cmd
}
