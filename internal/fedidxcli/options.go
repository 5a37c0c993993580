package fedidxcli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fedindex/internal/core/scan"
)

type Options struct {
	Root          string
	MaxDepth      int
	MaxEntries    int
	ExcludeGlobs  []string
	SymlinkPolicy string
	Gitignore     bool
	JSON          bool

	ContentType string
	Extension   string
	MinSize     string
	MaxSize     string
	Limit       int

	minSizeBytes uint64
	maxSizeBytes uint64
}

func (o *Options) Prepare() error {
	o.normalize()

	if o.Root == "" {
		return fmt.Errorf("root path is required")
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0")
	}
	if o.MaxEntries < 0 {
		return fmt.Errorf("max entries must be >= 0")
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}

	if o.SymlinkPolicy != "" {
		if _, err := scan.ParsePolicy(o.SymlinkPolicy); err != nil {
			return err
		}
	}

	if o.MinSize != "" {
		n, err := humanize.ParseBytes(o.MinSize)
		if err != nil {
			return fmt.Errorf("invalid --min-size %q: %w", o.MinSize, err)
		}
		o.minSizeBytes = n
	}
	if o.MaxSize != "" {
		n, err := humanize.ParseBytes(o.MaxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size %q: %w", o.MaxSize, err)
		}
		o.maxSizeBytes = n
	}
	if o.maxSizeBytes > 0 && o.minSizeBytes > o.maxSizeBytes {
		return fmt.Errorf("--min-size exceeds --max-size")
	}

	return nil
}

func (o *Options) normalize() {
	o.Root = strings.TrimSpace(o.Root)
	o.SymlinkPolicy = strings.TrimSpace(strings.ToLower(o.SymlinkPolicy))
	o.ContentType = strings.TrimSpace(strings.ToLower(o.ContentType))
	o.Extension = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(o.Extension)), ".")
	o.MinSize = strings.TrimSpace(o.MinSize)
	o.MaxSize = strings.TrimSpace(o.MaxSize)
}

type optionsKey struct{}

func optionsFrom(cmd *cobra.Command) *Options {
	if cmd == nil {
		return nil
	}
	root := cmd.Root()
	if root == nil {
		root = cmd
	}
	v := root.Context().Value(optionsKey{})
	opts, _ := v.(*Options)
	return opts
}

func bindFlags(cmd *cobra.Command, opts *Options) {
	cmd.PersistentFlags().StringVarP(&opts.Root, "root", "r", opts.Root, "federation root directory")
	cmd.PersistentFlags().IntVar(&opts.MaxDepth, "max-depth", opts.MaxDepth, "maximum traversal depth")
	cmd.PersistentFlags().IntVar(&opts.MaxEntries, "max-entries", opts.MaxEntries, "soft cap on indexed entries")
	cmd.PersistentFlags().StringSliceVarP(&opts.ExcludeGlobs, "exclude", "x", nil, "exclusion patterns (comma separated list: -x node_modules,*.log)")
	cmd.PersistentFlags().StringVar(&opts.SymlinkPolicy, "symlinks", opts.SymlinkPolicy, "symlink policy: follow|ignore|report")
	cmd.PersistentFlags().BoolVar(&opts.Gitignore, "gitignore", opts.Gitignore, "respect .gitignore files under the root")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", opts.JSON, "output as JSONL")
}

func ExecuteForTest(cmd *cobra.Command) (string, Options, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()

	opts := optionsFrom(cmd)
	if opts == nil {
		return out.String(), Options{}, err
	}
	opts.normalize()

	return out.String(), *opts, err
}

func newDefaultOptions() *Options {
	return &Options{
		Root:          ".",
		SymlinkPolicy: string(scan.PolicyFollow),
		Limit:         50,
	}
}

func withOptionsContext(cmd *cobra.Command, opts *Options) {
	cmd.SetContext(context.WithValue(context.Background(), optionsKey{}, opts))
}

const watchDebounceDefault = time.Second
