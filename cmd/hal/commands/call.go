package commands

import (
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type callOptions struct {
	query    []string
	body     string
	bodyFile string
}

func (o *callOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.query, "query", "q", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&o.body, "body", "", "JSON request body")
	cmd.Flags().StringVar(&o.bodyFile, "body-file", "", "file holding the JSON request body, - for stdin")
}

func (o *callOptions) build(cmd *cobra.Command, args []string) (hal.Call, error) {
	query, err := parseQuery(o.query)
	if err != nil {
		return hal.Call{}, err
	}

	body, err := readBody(o.body, o.bodyFile, cmd.InOrStdin())
	if err != nil {
		return hal.Call{}, err
	}

	return hal.Call{Args: parseArgs(args), Query: query, Body: body}, nil
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	options := &callOptions{}

	cmd := &cobra.Command{
		Use:   "call RESOURCE AFFORDANCE [ARGS...]",
		Short: "Invoke an affordance of a resource",
		Long: `Invoke an affordance published by discovery. ARGS fill the positional
placeholders of the affordance href in order; --query supplies named query
parameters.`,
		Example: `  hal call products get widget
  hal call products list --query page=2
  hal call orders create --body '{"sku": "widget", "quantity": 2}'`,
		Args: cobra.MinimumNArgs(2), //nolint:mnd // resource and affordance
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := options.build(cmd, args[2:])
			if err != nil {
				return err
			}

			client, err := createClient(cmd.Context())
			if err != nil {
				return err
			}

			resource, err := client.Invoke(cmd.Context(), args[0], args[1], call)
			if err != nil {
				return err
			}

			return renderResource(cmd, resource)
		},
	}

	options.addFlags(cmd)

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get HREF",
		Short: "Fetch a resource by href",
		Long:  "GET an absolute URL or a path relative to the endpoint, such as the self link of a listed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context())
			if err != nil {
				return err
			}

			resource, err := client.Follow(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return renderResource(cmd, resource)
		},
	}
}

func renderResource(cmd *cobra.Command, resource *hal.Resource) error {
	return renderOutput(cmd.OutOrStdout(), viper.GetString("output"), resourceView(resource),
		[]string{"Property", "Value"}, resourceRows(resource))
}
