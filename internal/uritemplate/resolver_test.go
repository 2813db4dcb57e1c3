package uritemplate_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/hal-client/internal/uritemplate"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("positional placeholders filled in order", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/stores/{store}/products/{id}", true, []any{"main", 7}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/stores/main/products/7", resolved.Path)
		assert.Empty(t, resolved.Overflow)
		assert.Empty(t, resolved.Unrecognized)
	})

	t.Run("positional values are path escaped", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products/{id}", true, []any{"a b/c"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/products/a%20b%2Fc", resolved.Path)
	})

	t.Run("query keys encoded in sorted order", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products{?size,page,sort}", true, nil, map[string]any{
			"size": 10,
			"page": 2,
		})
		require.NoError(t, err)
		assert.Equal(t, "/products?page=2&size=10", resolved.Path)
	})

	t.Run("missing query keys are omitted", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products{?page,size}", true, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "/products", resolved.Path)
	})

	t.Run("list values are comma joined", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products{?tags}", true, nil, map[string]any{
			"tags": []string{"red", "blue"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/products?tags=red%2Cblue", resolved.Path)
	})

	t.Run("unrecognized query keys overflow", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products{?page}", true, nil, map[string]any{
			"page":  1,
			"zeta":  "z",
			"alpha": true,
		})
		require.NoError(t, err)
		assert.Equal(t, "/products?page=1", resolved.Path)
		assert.Equal(t, []string{"alpha", "zeta"}, resolved.Unrecognized)
		assert.Equal(t, url.Values{"alpha": {"true"}, "zeta": {"z"}}, resolved.Overflow)
		assert.Equal(t, "/products?page=1&alpha=true&zeta=z", resolved.URL())
	})

	t.Run("continuation expression", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/search?q=all{&page}", true, nil, map[string]any{"page": 3})
		require.NoError(t, err)
		assert.Equal(t, "/search?q=all&page=3", resolved.Path)
	})

	t.Run("non-templated href used verbatim", func(t *testing.T) {
		t.Parallel()

		resolved, err := uritemplate.Resolve("/products/{id}", false, nil, map[string]any{"page": 2})
		require.NoError(t, err)
		assert.Equal(t, "/products/{id}", resolved.Path)
		assert.Equal(t, []string{"page"}, resolved.Unrecognized)
		assert.Equal(t, "/products/{id}?page=2", resolved.URL())
	})

	t.Run("missing positional argument", func(t *testing.T) {
		t.Parallel()

		_, err := uritemplate.Resolve("/stores/{store}/products/{id}", true, []any{"main"}, nil)
		require.ErrorIs(t, err, hal.ErrMissingPositionalArgument)
		assert.Contains(t, err.Error(), "id")
	})

	t.Run("too many positional arguments", func(t *testing.T) {
		t.Parallel()

		_, err := uritemplate.Resolve("/products/{id}", true, []any{1, 2, 3}, nil)
		require.ErrorIs(t, err, hal.ErrTooManyPositionalArguments)
		assert.Contains(t, err.Error(), "surplus: 2, 3")
	})
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	positional, query := uritemplate.Placeholders("/a/{first}/b/{second}{?x, y,z*}")
	assert.Equal(t, []string{"first", "second"}, positional)
	assert.Equal(t, []string{"x", "y", "z"}, query)

	positional, query = uritemplate.Placeholders("/plain")
	assert.Empty(t, positional)
	assert.Empty(t, query)
}

func TestStringify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "x", want: "x"},
		{name: "int", value: 42, want: "42"},
		{name: "bool", value: false, want: "false"},
		{name: "strings", value: []string{"a", "b"}, want: "a,b"},
		{name: "mixed", value: []any{"a", 1, true}, want: "a,1,true"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, uritemplate.Stringify(testCase.value))
		})
	}
}
