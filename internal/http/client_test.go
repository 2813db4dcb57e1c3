package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/auth"
	halhttp "github.com/fivetwenty-io/hal-client/internal/http"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	mutex sync.Mutex
	logs  []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) messages(level string) []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var out []string

	for _, entry := range l.logs {
		if entry["level"] == level {
			msg, _ := entry["msg"].(string)
			out = append(out, msg)
		}
	}

	return out
}

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// signatureOf recomputes the signature the server should see.
func signatureOf(t *testing.T, request *http.Request, body []byte, privateKey string) string {
	t.Helper()

	headers := map[string]string{}
	for _, name := range []string{"Accept", "Content-Type", "Public-Key", "Timestamp", "URL"} {
		headers[name] = request.Header.Get(name)
	}

	signature, err := auth.Sign(headers, body, privateKey)
	require.NoError(t, err)

	return "Bearer " + signature
}

func fastRetries(attempts int) halhttp.Option {
	return halhttp.WithRetryConfig(attempts, time.Millisecond, 5*time.Millisecond)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("signed request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/products", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "application/hal+json", request.Header.Get("Accept"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "pub", request.Header.Get("Public-Key"))
			assert.Equal(t, "2024-03-01T12:00:00Z", request.Header.Get("Timestamp"))
			assert.Equal(t, "http://"+request.Host+"/products", request.Header.Get("URL"))
			assert.Equal(t, signatureOf(t, request, nil, "secret"), request.Header.Get("Authorization"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"name": "widget"})
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, auth.NewCredentials("pub", "secret", ""), halhttp.WithClock(fixedClock))

		resp, err := client.Do(context.Background(), &halhttp.Request{Method: "GET", Path: "/products"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "widget", result["name"])
	})

	t.Run("bearer token replaces signature", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, auth.NewCredentials("pub", "secret", "test-token"))

		_, err := client.Get(context.Background(), "/products", nil)
		require.NoError(t, err)
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "page=2&size=10", request.URL.RawQuery)
			assert.Equal(t, "http://"+request.Host+"/products?page=2&size=10", request.Header.Get("URL"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/products", url.Values{"size": {"10"}, "page": {"2"}})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body is signed over the body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)

			body, err := io.ReadAll(request.Body)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"name":"widget"}`, string(body))
			assert.Equal(t, signatureOf(t, request, body, "secret"), request.Header.Get("Authorization"))

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, auth.NewCredentials("pub", "secret", ""))

		resp, err := client.Post(context.Background(), "/products", map[string]string{"name": "widget"})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"code":    4001,
				"title":   "ProductNotFound",
				"message": "no such product",
			})
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/products/missing", nil)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.True(t, hal.IsNotFound(err))

		var transportErr *hal.TransportError

		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "GET", transportErr.Method)
		assert.Equal(t, server.URL+"/products/missing", transportErr.URL)
		require.NotNil(t, transportErr.Payload)
		assert.Equal(t, 4001, transportErr.Payload.Code)
		assert.Equal(t, "no such product", transportErr.Payload.Message)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "test-agent", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, nil, halhttp.WithUserAgent("test-agent"))

		resp, err := client.Do(context.Background(), &halhttp.Request{
			Method:  "GET",
			Path:    "/products",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("absolute href bypasses base URL", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/elsewhere", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := halhttp.NewClient("https://unused.example.com", nil)

		_, err := client.Get(context.Background(), server.URL+"/elsewhere", nil)
		require.NoError(t, err)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := halhttp.NewClient(server.URL, nil, halhttp.WithLogger(logger), halhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/products", nil)
		require.NoError(t, err)

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("connection failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := halhttp.NewClient(serverURL, nil, fastRetries(2))

		resp, err := client.Get(context.Background(), "/products", nil)
		require.Error(t, err)
		assert.Nil(t, resp)
		require.ErrorIs(t, err, hal.ErrTransport)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*halhttp.Client, context.Context) (*halhttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
		{
			name:   "OPTIONS",
			method: "OPTIONS",
			fn: func(c *halhttp.Client, ctx context.Context) (*halhttp.Response, error) {
				return c.Options(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := halhttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := halhttp.NewClient(server.URL, nil, fastRetries(3), halhttp.WithLogger(logger))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
		assert.Equal(t, []string{"retrying request", "retrying request"}, logger.messages("warn"))
	})

	for _, status := range []int{408, 419, 500, 502, 504} {
		status := status
		t.Run(fmt.Sprintf("retries status %d", status), func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				if attempts.Add(1) == 1 {
					writer.WriteHeader(status)
				} else {
					writer.WriteHeader(http.StatusOK)
				}
			}))
			defer server.Close()

			client := halhttp.NewClient(server.URL, nil, fastRetries(3))

			_, err := client.Get(context.Background(), "/test", nil)
			require.NoError(t, err)
			assert.Equal(t, int32(2), attempts.Load())
		})
	}

	for _, status := range []int{400, 401, 404, 429, 503} {
		status := status
		t.Run(fmt.Sprintf("does not retry %d", status), func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				attempts.Add(1)
				writer.WriteHeader(status)
			}))
			defer server.Close()

			client := halhttp.NewClient(server.URL, nil, fastRetries(3))

			resp, err := client.Get(context.Background(), "/test", nil)
			require.Error(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, int32(1), attempts.Load())
		})
	}

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, nil, fastRetries(4))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 502, resp.StatusCode)
		assert.Equal(t, int32(4), attempts.Load())
		require.ErrorIs(t, err, hal.ErrTransport)
	})

	t.Run("single attempt disables retries", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := halhttp.NewClient(server.URL, nil, fastRetries(1))

		_, err := client.Get(context.Background(), "/test", nil)
		require.ErrorIs(t, err, hal.ErrServerError)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries are re-stamped and re-signed", func(t *testing.T) {
		t.Parallel()

		var (
			attempts   atomic.Int32
			mutex      sync.Mutex
			timestamps []string
		)

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			body, _ := io.ReadAll(request.Body)
			assert.Equal(t, signatureOf(t, request, body, "secret"), request.Header.Get("Authorization"))

			mutex.Lock()
			timestamps = append(timestamps, request.Header.Get("Timestamp"))
			mutex.Unlock()

			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusGatewayTimeout)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		var ticks atomic.Int64

		clock := func() time.Time {
			return fixedTime.Add(time.Duration(ticks.Add(1)) * time.Minute)
		}

		client := halhttp.NewClient(server.URL, auth.NewCredentials("pub", "secret", ""),
			fastRetries(3), halhttp.WithClock(clock))

		_, err := client.Put(context.Background(), "/test", map[string]int{"quantity": 3})
		require.NoError(t, err)

		require.Len(t, timestamps, 2)
		assert.NotEqual(t, timestamps[0], timestamps[1])
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_TokenExpiry(t *testing.T) {
	t.Parallel()

	expiring := func(t *testing.T, valid string, inBand string) (*httptest.Server, *atomic.Int32) {
		t.Helper()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)

			if request.Header.Get("Authorization") != "Bearer "+valid {
				writer.WriteHeader(498)

				if inBand != "" {
					_ = json.NewEncoder(writer).Encode(map[string]string{"token": inBand})
				}

				return
			}

			_ = json.NewEncoder(writer).Encode(map[string]string{"ok": "yes"})
		}))

		return server, &calls
	}

	t.Run("in-band token", func(t *testing.T) {
		t.Parallel()

		server, calls := expiring(t, "fresh", "fresh")
		defer server.Close()

		creds := auth.NewCredentials("pub", "secret", "stale")

		var persisted []string
		creds.OnRefresh = func(token string) { persisted = append(persisted, token) }

		resp, err := halhttp.NewClient(server.URL, creds).Get(context.Background(), "/x", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, "fresh", creds.Token())
		assert.Equal(t, []string{"fresh"}, persisted)
	})

	t.Run("refresh function called once", func(t *testing.T) {
		t.Parallel()

		server, calls := expiring(t, "fresh", "")
		defer server.Close()

		var refreshes atomic.Int32

		creds := auth.NewCredentials("pub", "secret", "stale")
		creds.Refresh = func(ctx context.Context) (string, error) {
			refreshes.Add(1)

			return "fresh", nil
		}

		resp, err := halhttp.NewClient(server.URL, creds).Get(context.Background(), "/x", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(1), refreshes.Load())
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("second expiry is terminal", func(t *testing.T) {
		t.Parallel()

		server, calls := expiring(t, "never-issued", "")
		defer server.Close()

		var refreshes atomic.Int32

		creds := auth.NewCredentials("pub", "secret", "stale")
		creds.Refresh = func(ctx context.Context) (string, error) {
			refreshes.Add(1)

			return "still-wrong", nil
		}

		resp, err := halhttp.NewClient(server.URL, creds).Get(context.Background(), "/x", nil)
		require.Error(t, err)
		assert.Equal(t, 498, resp.StatusCode)
		assert.Equal(t, int32(1), refreshes.Load())
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 498, hal.StatusCode(err))
	})

	t.Run("no refresher configured", func(t *testing.T) {
		t.Parallel()

		server, calls := expiring(t, "fresh", "")
		defer server.Close()

		_, err := halhttp.NewClient(server.URL, auth.NewCredentials("pub", "secret", "stale")).
			Get(context.Background(), "/x", nil)
		require.Error(t, err)
		assert.True(t, hal.IsUnauthorized(err))
		require.ErrorIs(t, err, hal.ErrNoTokenRefresher)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("refresher failure", func(t *testing.T) {
		t.Parallel()

		server, _ := expiring(t, "fresh", "")
		defer server.Close()

		errBackend := errors.New("identity provider down")
		creds := auth.NewCredentials("pub", "secret", "stale")
		creds.Refresh = func(ctx context.Context) (string, error) {
			return "", errBackend
		}

		_, err := halhttp.NewClient(server.URL, creds).Get(context.Background(), "/x", nil)
		require.ErrorIs(t, err, hal.ErrTokenRefreshFailed)
		require.ErrorIs(t, err, hal.ErrUnauthorized)
		require.ErrorIs(t, err, errBackend)
	})
}

func TestClient_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want map[string]interface{}
	}{
		{name: "object", body: `{"a":1}`, want: map[string]interface{}{"a": float64(1)}},
		{name: "array", body: `[1,2]`, want: map[string]interface{}{"items": []interface{}{float64(1), float64(2)}}},
		{name: "scalar", body: `"done"`, want: map[string]interface{}{"value": "done"}},
		{name: "empty", body: ``, want: map[string]interface{}{}},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				_, _ = writer.Write([]byte(testCase.body))
			}))
			defer server.Close()

			payload, err := halhttp.NewClient(server.URL, nil).Send(context.Background(), &halhttp.Request{Method: "GET", Path: "/"})
			require.NoError(t, err)
			assert.Equal(t, testCase.want, payload)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Cache(t *testing.T) {
	t.Parallel()

	t.Run("GET served from cache", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)
			_, _ = writer.Write([]byte(`{"_links":{"self":{"href":"/products/1"}},"name":"widget"}`))
		}))
		defer server.Close()

		cache := hal.NewMemoryCache(10)
		client := halhttp.NewClient(server.URL, nil, halhttp.WithCache(cache, time.Minute))

		first, err := client.Get(context.Background(), "/products/1", url.Values{"view": {"full"}})
		require.NoError(t, err)
		assert.False(t, first.Cached)

		second, err := client.Get(context.Background(), "/products/1", url.Values{"view": {"full"}})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.Body, second.Body)
		assert.Equal(t, int32(1), calls.Load())

		// The self link is cached too.
		third, err := client.Get(context.Background(), "/products/1", nil)
		require.NoError(t, err)
		assert.True(t, third.Cached)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("entries expire", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		cache := hal.NewMemoryCache(10)
		client := halhttp.NewClient(server.URL, nil, halhttp.WithCache(cache, time.Nanosecond))

		_, err := client.Get(context.Background(), "/x", nil)
		require.NoError(t, err)

		time.Sleep(time.Millisecond)

		_, err = client.Get(context.Background(), "/x", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("non-GET and failures are not cached", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path == "/missing" {
				writer.WriteHeader(http.StatusNotFound)

				return
			}

			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		cache := hal.NewMemoryCache(10)
		client := halhttp.NewClient(server.URL, nil, halhttp.WithCache(cache, time.Minute))

		_, err := client.Post(context.Background(), "/x", map[string]string{})
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/missing", nil)
		require.Error(t, err)

		assert.Equal(t, 0, cache.Len())
	})
}
