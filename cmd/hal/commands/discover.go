package commands

import (
	"strconv"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/uritemplate"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the resources and affordances a service publishes",
		Long:  "Send OPTIONS to the service root and list every resource with its affordances and parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context())
			if err != nil {
				return err
			}

			catalog, rows, err := describeCatalog(client)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), viper.GetString("output"), catalog,
				[]string{"Resource", "Affordance", "Method", "Href", "Templated", "Parameters"}, rows)
		},
	}
}

// describeCatalog returns the links of every resource, keyed by resource
// name, and one table row per affordance.
func describeCatalog(client hal.Client) (map[string][]hal.Link, [][]string, error) {
	catalog := map[string][]hal.Link{}

	var rows [][]string

	for _, name := range client.Names() {
		resource, err := client.Resource(name)
		if err != nil {
			return nil, nil, err
		}

		links := resource.Links()
		catalog[name] = links

		for _, link := range links {
			rows = append(rows, []string{
				name,
				link.Name,
				link.Method,
				link.Href,
				strconv.FormatBool(link.Templated),
				describeParameters(link),
			})
		}
	}

	return catalog, rows, nil
}

// describeParameters lists positional placeholders as <name> and query
// parameters as ?name.
func describeParameters(link hal.Link) string {
	if !link.Templated {
		return ""
	}

	positional, query := uritemplate.Placeholders(link.Href)

	parts := make([]string, 0, len(positional)+len(query))
	for _, name := range positional {
		parts = append(parts, "<"+name+">")
	}

	for _, name := range query {
		parts = append(parts, "?"+name)
	}

	return strings.Join(parts, " ")
}
