package hal

import (
	"net/http"
	"sort"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/iancoleman/strcase"
)

// Link describes one operation a resource offers.
type Link struct {
	Name      string `json:"name"                mapstructure:"name"      yaml:"name"`
	Method    string `json:"method"              mapstructure:"method"    yaml:"method"`
	Href      string `json:"href"                mapstructure:"href"      yaml:"href"`
	Templated bool   `json:"templated,omitempty" mapstructure:"templated" yaml:"templated,omitempty"`
}

// NormalizeName converts an affordance name to the snake_case form used for
// lookups, so "find-products" and "findProducts" both become "find_products".
func NormalizeName(name string) string {
	return strcase.ToSnake(name)
}

// ParseLinks reads link descriptors in either object form ({rel: descriptor}
// or {rel: [descriptor...]}) or array form ([descriptor...]). Entries without
// an href are skipped, and the "curies" relation is ignored.
func ParseLinks(raw any) []Link {
	switch value := raw.(type) {
	case map[string]any:
		rels := make([]string, 0, len(value))
		for rel := range value {
			if rel != constants.KeyCuries {
				rels = append(rels, rel)
			}
		}

		sort.Strings(rels)

		links := make([]Link, 0, len(rels))

		for _, rel := range rels {
			switch entry := value[rel].(type) {
			case map[string]any:
				if link, ok := linkFrom(rel, entry); ok {
					links = append(links, link)
				}
			case []any:
				for _, item := range entry {
					object, isObject := item.(map[string]any)
					if !isObject {
						continue
					}

					name := rel
					if named, _ := object["name"].(string); named != "" {
						name = named
					}

					if link, ok := linkFrom(name, object); ok {
						links = append(links, link)
					}
				}
			}
		}

		return links

	case []any:
		links := make([]Link, 0, len(value))

		for _, item := range value {
			object, isObject := item.(map[string]any)
			if !isObject {
				continue
			}

			name, _ := object["name"].(string)
			if name == "" {
				name, _ = object["rel"].(string)
			}

			if name == "" {
				continue
			}

			if link, ok := linkFrom(name, object); ok {
				links = append(links, link)
			}
		}

		return links

	default:
		return nil
	}
}

func linkFrom(name string, object map[string]any) (Link, bool) {
	href, _ := object["href"].(string)
	if href == "" {
		return Link{}, false
	}

	method, _ := object["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	templated, _ := object["templated"].(bool)

	return Link{
		Name:      NormalizeName(name),
		Method:    strings.ToUpper(method),
		Href:      href,
		Templated: templated,
	}, true
}
