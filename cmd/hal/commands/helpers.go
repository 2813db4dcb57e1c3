package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
	"github.com/hashicorp/go-hclog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// newLogger builds the CLI logger. Warnings are always shown; --verbose adds
// info and --debug adds request tracing.
func newLogger(out io.Writer) hclog.Logger {
	level := hclog.Warn

	switch {
	case viper.GetBool("debug"):
		level = hclog.Debug
	case viper.GetBool("verbose"):
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "hal",
		Level:  level,
		Output: out,
	})
}

// createClient builds a client from the configuration file, flags and
// environment.
func createClient(ctx context.Context) (hal.Client, error) {
	config := loadConfig()
	if config.Endpoint == "" {
		return nil, constants.ErrNoEndpointConfigured
	}

	logger := hal.NewHCLogger(newLogger(os.Stderr))

	clientConfig, err := buildClientConfig(config, logger)
	if err != nil {
		return nil, err
	}

	return halclient.New(ctx, clientConfig)
}

func buildClientConfig(config *Config, logger hal.Logger) (*hal.Config, error) {
	persister := NewConfigPersister()

	clientConfig := &hal.Config{
		Endpoint:        config.Endpoint,
		PublicKey:       config.PublicKey,
		PrivateKey:      config.PrivateKey,
		Token:           config.Token,
		RequestAttempts: config.RequestAttempts,
		UserAgent:       config.UserAgent,
		Logger:          logger,
		Debug:           viper.GetBool("debug"),
		SkipTLSVerify:   viper.GetBool("skip_tls_verify"),
		OnTokenRefresh: func(token string) {
			err := persister.UpdateToken(config, token)
			if err != nil {
				logger.Warn("failed to persist refreshed token", map[string]interface{}{"error": err.Error()})
			}
		},
	}

	if clientConfig.UserAgent == "" {
		clientConfig.UserAgent = constants.DefaultUserAgent
	}

	if config.TokenCommand != "" {
		clientConfig.RefreshToken = tokenCommand(config.TokenCommand)
	}

	if config.Cache != nil {
		err := config.Cache.Validate()
		if err != nil {
			return nil, err
		}

		cache, err := hal.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}

		clientConfig.Cache = cache
	}

	return clientConfig, nil
}

// tokenCommand runs a shell command whose standard output is the new token.
func tokenCommand(command string) hal.RefreshFunc {
	return func(ctx context.Context) (string, error) {
		output, err := exec.CommandContext(ctx, "sh", "-c", command).Output() // #nosec G204 -- command comes from the user's own config
		if err != nil {
			return "", fmt.Errorf("running token command: %w", err)
		}

		return strings.TrimSpace(string(output)), nil
	}
}

// renderOutput writes value as JSON or YAML, or rows as a table.
func renderOutput(out io.Writer, format string, value interface{}, headers []string, rows [][]string) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable, "":
		return renderTable(out, headers, rows)
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

func renderTable(out io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(out)

	header := make([]interface{}, len(headers))
	for i, name := range headers {
		header[i] = name
	}

	table.Header(header...)

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// resourceView renders a resource back into HAL shape for JSON and YAML.
func resourceView(resource *hal.Resource) map[string]interface{} {
	view := make(map[string]interface{}, len(resource.State)+2)
	for key, value := range resource.State {
		view[key] = value
	}

	if links := resource.Links(); len(links) > 0 {
		view[constants.KeyLinks] = links
	}

	if len(resource.Embedded) > 0 {
		embedded := make(map[string]interface{}, len(resource.Embedded))

		for key, children := range resource.Embedded {
			views := make([]interface{}, len(children))
			for i, child := range children {
				views[i] = resourceView(child)
			}

			embedded[key] = views
		}

		view[constants.KeyEmbedded] = embedded
	}

	return view
}

// resourceRows lists the state of a resource followed by its affordances.
func resourceRows(resource *hal.Resource) [][]string {
	keys := sortedKeys(resource.State)

	rows := make([][]string, 0, len(keys)+len(resource.Links()))
	for _, key := range keys {
		rows = append(rows, []string{key, formatCell(resource.State[key])})
	}

	for _, link := range resource.Links() {
		rows = append(rows, []string{"link: " + link.Name, formatCell(link.Method + " " + link.Href)})
	}

	for _, key := range sortedKeys(resource.Embedded) {
		rows = append(rows, []string{"embedded: " + key, strconv.Itoa(len(resource.Embedded[key]))})
	}

	return rows
}

// itemRows lays out items as one row each, with a column per state key.
func itemRows(items []*hal.Resource, firstIndex int) ([]string, [][]string) {
	columns := map[string]bool{}

	for _, item := range items {
		for key := range item.State {
			columns[key] = true
		}
	}

	keys := sortedKeys(columns)
	headers := append([]string{"#"}, keys...)

	rows := make([][]string, len(items))
	for i, item := range items {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.Itoa(firstIndex+i))

		for _, key := range keys {
			row = append(row, formatCell(item.State[key]))
		}

		rows[i] = row
	}

	return headers, rows
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// formatCell renders a decoded JSON value for a table cell.
func formatCell(value interface{}) string {
	var text string

	switch typed := value.(type) {
	case nil:
		text = ""
	case string:
		text = typed
	case bool:
		text = strconv.FormatBool(typed)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		text = strconv.Itoa(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			text = fmt.Sprint(typed)
		} else {
			text = string(data)
		}
	}

	runes := []rune(text)
	if len(runes) > constants.MaxCellWidth {
		return string(runes[:constants.MaxCellWidth-3]) + "..."
	}

	return text
}

// parseQuery turns key=value pairs into query arguments. A repeated key
// becomes a list.
func parseQuery(pairs []string) (map[string]interface{}, error) {
	query := make(map[string]interface{}, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidQueryParam, pair)
		}

		switch existing := query[key].(type) {
		case nil:
			query[key] = value
		case []interface{}:
			query[key] = append(existing, value)
		default:
			query[key] = []interface{}{existing, value}
		}
	}

	return query, nil
}

// parseArgs passes positional arguments through as strings.
func parseArgs(args []string) []interface{} {
	values := make([]interface{}, len(args))
	for i, arg := range args {
		values[i] = arg
	}

	return values
}

// parseSlice reads a start:stop[:step] expression. Empty parts are left
// open, so "::-1" reverses and ":10" takes the first ten items.
func parseSlice(expr string) (hal.SliceSpec, error) {
	parts := strings.Split(expr, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return hal.SliceSpec{}, fmt.Errorf("%w: %q", constants.ErrInvalidSliceExpr, expr)
	}

	bounds := make([]*int, 2) //nolint:mnd // start and stop

	for i := range bounds {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			continue
		}

		value, err := strconv.Atoi(part)
		if err != nil {
			return hal.SliceSpec{}, fmt.Errorf("%w: %q", constants.ErrInvalidSliceExpr, expr)
		}

		bounds[i] = &value
	}

	spec := hal.SliceSpec{Start: bounds[0], Stop: bounds[1], Step: 1}

	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		step, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return hal.SliceSpec{}, fmt.Errorf("%w: %q", constants.ErrInvalidSliceExpr, expr)
		}

		spec.Step = step
	}

	return spec, nil
}

// readBody decodes the request body from --body or --body-file. A body file
// of "-" reads standard input.
func readBody(body, bodyFile string, stdin io.Reader) (interface{}, error) {
	if body != "" && bodyFile != "" {
		return nil, constants.ErrBodyConflict
	}

	var data []byte

	switch {
	case body != "":
		data = []byte(body)
	case bodyFile == "-":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read body from stdin: %w", err)
		}

		data = read
	case bodyFile != "":
		read, err := os.ReadFile(bodyFile) // #nosec G304 -- path supplied by the user
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}

		data = read
	default:
		return nil, nil //nolint:nilnil // no body is a valid request
	}

	var decoded interface{}

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}

	return decoded, nil
}
