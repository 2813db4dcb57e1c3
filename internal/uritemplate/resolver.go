// Package uritemplate expands the URI templates found in HAL link hrefs.
//
// Positional placeholders such as {id} are filled in order from arguments.
// Query placeholders such as {?page,size} are filled by name; names outside
// the template are still sent but reported so callers can warn about them.
package uritemplate

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// Resolved is the outcome of expanding a template.
type Resolved struct {
	// Path is the expanded href, including the recognized query keys.
	Path string

	// Overflow holds query values the template does not declare.
	Overflow url.Values

	// Unrecognized lists the sorted names in Overflow.
	Unrecognized []string
}

// URL returns Path with Overflow appended to its query string.
func (r *Resolved) URL() string {
	if len(r.Overflow) == 0 {
		return r.Path
	}

	separator := "?"
	if strings.Contains(r.Path, "?") {
		separator = "&"
	}

	return r.Path + separator + Encode(r.Overflow)
}

// Placeholders returns the positional placeholder names in order and the
// query placeholder names in declaration order.
func Placeholders(href string) ([]string, []string) {
	var positional, query []string

	for _, match := range placeholderPattern.FindAllStringSubmatch(href, -1) {
		inner := match[1]
		if isQueryExpression(inner) {
			query = append(query, splitNames(inner[1:])...)

			continue
		}

		positional = append(positional, strings.TrimSpace(inner))
	}

	return positional, query
}

// Resolve expands href. When templated is false the href is used verbatim and
// every query value becomes overflow.
func Resolve(href string, templated bool, args []any, query map[string]any) (*Resolved, error) {
	resolved := &Resolved{Overflow: url.Values{}}

	if !templated {
		resolved.Path = href
		resolved.addOverflow(query, nil)

		return resolved, nil
	}

	positional, queryNames := Placeholders(href)

	if len(args) < len(positional) {
		return nil, fmt.Errorf("%w: %s needs %s", hal.ErrMissingPositionalArgument,
			href, strings.Join(positional[len(args):], ", "))
	}

	if len(args) > len(positional) {
		surplus := make([]string, 0, len(args)-len(positional))
		for _, arg := range args[len(positional):] {
			surplus = append(surplus, Stringify(arg))
		}

		return nil, fmt.Errorf("%w: %s takes %d, got %d (surplus: %s)", hal.ErrTooManyPositionalArguments,
			href, len(positional), len(args), strings.Join(surplus, ", "))
	}

	recognized := make(map[string]bool, len(queryNames))
	for _, name := range queryNames {
		recognized[name] = true
	}

	next := 0
	resolved.Path = placeholderPattern.ReplaceAllStringFunc(href, func(match string) string {
		inner := match[1 : len(match)-1]
		if !isQueryExpression(inner) {
			value := url.PathEscape(Stringify(args[next]))
			next++

			return value
		}

		values := url.Values{}

		for _, name := range splitNames(inner[1:]) {
			if value, ok := query[name]; ok && value != nil {
				values.Set(name, Stringify(value))
			}
		}

		if len(values) == 0 {
			return ""
		}

		return inner[:1] + Encode(values)
	})

	resolved.addOverflow(query, recognized)

	return resolved, nil
}

// Encode renders values as a query string with keys in sorted order.
func Encode(values url.Values) string {
	return values.Encode()
}

// Stringify renders an argument the way it appears in a URL. Slices are
// joined with commas and nil becomes the empty string.
func Stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []string:
		return strings.Join(typed, ",")
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = Stringify(item)
		}

		return strings.Join(parts, ",")
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func (r *Resolved) addOverflow(query map[string]any, recognized map[string]bool) {
	for name, value := range query {
		if recognized[name] || value == nil {
			continue
		}

		r.Overflow.Set(name, Stringify(value))
		r.Unrecognized = append(r.Unrecognized, name)
	}

	sort.Strings(r.Unrecognized)
}

func isQueryExpression(inner string) bool {
	return strings.HasPrefix(inner, "?") || strings.HasPrefix(inner, "&")
}

func splitNames(list string) []string {
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))

	for _, part := range parts {
		name := strings.TrimSuffix(strings.TrimSpace(part), "*")
		if name != "" {
			names = append(names, name)
		}
	}

	return names
}
