package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type listOptions struct {
	callOptions

	index    int
	hasIndex bool
	slice    string
	all      bool
	key      string
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	options := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list RESOURCE AFFORDANCE [ARGS...]",
		Short: "List a paginated collection",
		Long: `Invoke an affordance that returns a paginated collection. Without flags the
first page is shown. --index and --slice fetch only the pages they need;
--all follows every page link.`,
		Example: `  hal list products list
  hal list products list --index -1
  hal list products list --slice 10:20
  hal list products list --slice ::-1 --output json`,
		Args: cobra.MinimumNArgs(2), //nolint:mnd // resource and affordance
		RunE: func(cmd *cobra.Command, args []string) error {
			options.hasIndex = cmd.Flags().Changed("index")

			call, err := options.build(cmd, args[2:])
			if err != nil {
				return err
			}

			client, err := createClient(cmd.Context())
			if err != nil {
				return err
			}

			var opts []hal.ContainerOption
			if options.key != "" {
				opts = append(opts, hal.WithEmbeddedKey(options.key))
			}

			container, err := client.List(cmd.Context(), args[0], args[1], call, opts...)
			if err != nil {
				return err
			}

			items, first, err := selectItems(cmd.Context(), container, options)
			if err != nil {
				return err
			}

			if !options.all && !container.Finished() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "showing %d of %d items, use --all to fetch every page\n",
					len(items), container.Len())
			}

			return renderItems(cmd, items, first)
		},
	}

	options.addFlags(cmd)
	cmd.Flags().IntVar(&options.index, "index", 0, "show the item at this index, negative counts from the end")
	cmd.Flags().StringVar(&options.slice, "slice", "", "show items selected by start:stop[:step]")
	cmd.Flags().BoolVar(&options.all, "all", false, "fetch every page")
	cmd.Flags().StringVar(&options.key, "key", "", "embedded key holding the items")

	return cmd
}

// selectItems picks the items to show and the index of the first one.
func selectItems(ctx context.Context, container *hal.Container, options *listOptions) ([]*hal.Resource, int, error) {
	if options.hasIndex && options.slice != "" {
		return nil, 0, constants.ErrIndexAndSlice
	}

	switch {
	case options.hasIndex:
		item, err := container.Get(ctx, options.index)
		if err != nil {
			return nil, 0, err
		}

		index := options.index
		if index < 0 {
			index += container.Len()
		}

		return []*hal.Resource{item}, index, nil

	case options.slice != "":
		spec, err := parseSlice(options.slice)
		if err != nil {
			return nil, 0, err
		}

		selected, err := container.Slice(ctx, spec)
		if err != nil {
			return nil, 0, err
		}

		items, err := selected.All(ctx)

		return items, 0, err

	case options.all:
		items, err := container.All(ctx)

		return items, 0, err

	default:
		offset := container.Offset()
		items := make([]*hal.Resource, 0, container.Materialized())

		for index := offset; index < offset+container.Materialized(); index++ {
			item, err := container.Get(ctx, index)
			if err != nil {
				return nil, 0, err
			}

			items = append(items, item)
		}

		return items, offset, nil
	}
}

func renderItems(cmd *cobra.Command, items []*hal.Resource, first int) error {
	views := make([]interface{}, len(items))
	for i, item := range items {
		views[i] = resourceView(item)
	}

	headers, rows := itemRows(items, first)

	return renderOutput(cmd.OutOrStdout(), viper.GetString("output"), views, headers, rows)
}
