package planet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

type memoryCache struct {
	responses map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{responses: map[string][]byte{}}
}

func (m *memoryCache) GetResponse(_ context.Context, endpoint string) ([]byte, error) {
	return m.responses[endpoint], nil
}

func (m *memoryCache) SetResponse(_ context.Context, endpoint string, body []byte) error {
	m.responses[endpoint] = body
	return nil
}

func (m *memoryCache) InvalidateResponses(_ context.Context) error {
	m.responses = map[string][]byte{}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

func newTestClient(baseURL string, cache *memoryCache) *Client {
	return NewClient(cache, &cfg.PlanetCfg{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}, nopLogger{})
}

func TestListProducts(t *testing.T) {
	t.Run("unwraps the data envelope and sends the api key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/getProductList", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("APIKey"))
			w.Write([]byte(`{"data":[{"id":11,"desc":"Sensor A","name":"SEN-A","slug":"sensor-a","category_slug":"sensors"}]}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		entries, err := client.ListProducts(context.Background())
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, int64(11), entries[0].RemoteID)
		assert.Equal(t, "Sensor A", entries[0].Title)
		assert.Equal(t, "SEN-A", entries[0].ProductCode)
		assert.Equal(t, "sensor-a", entries[0].Slug)
		assert.Equal(t, "sensors", entries[0].CategorySlug)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		_, err := client.ListProducts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		_, err := client.ListProducts(context.Background())
		require.ErrorIs(t, err, e.ErrRemoteBadStatus)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries malformed bodies", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 2 {
				w.Write([]byte(`{"data":[{"id":1`))
				return
			}
			w.Write([]byte(`{"data":[{"id":11,"slug":"sensor-a"}]}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		entries, err := client.ListProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, calls)
	})

	t.Run("persistently malformed bodies exhaust the retries", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`[{"id":11}]`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		_, err := client.ListProducts(context.Background())
		require.ErrorIs(t, err, e.ErrRemoteMalformed)
		assert.Equal(t, 3, calls)
	})

	t.Run("serves repeated calls from the cache", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		cache := newMemoryCache()
		client := newTestClient(srv.URL, cache)

		_, err := client.ListProducts(context.Background())
		require.NoError(t, err)
		_, err = client.ListProducts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, calls)

		require.NoError(t, client.InvalidateCache(context.Background()))
		_, err = client.ListProducts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestGetProduct(t *testing.T) {
	t.Run("fetches by slug and keeps the raw payload", func(t *testing.T) {
		body := `{"data":{"id":11,"desc":"Sensor A","name":"SEN-A","slug":"sensor-a","price":"19.99","1st_categories":[{"id":1,"name":"Sensors","slug":"sensors"}]}}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/getProductBySlug", r.URL.Path)
			assert.Equal(t, "sensor-a", r.URL.Query().Get("slug"))
			w.Write([]byte(body))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		payload, err := client.GetProduct(context.Background(), "sensor-a")
		require.NoError(t, err)

		assert.Equal(t, int64(11), payload.RemoteID)
		assert.Equal(t, "Sensor A", payload.Title)
		assert.Equal(t, "SEN-A", payload.ProductCode)
		assert.Equal(t, "sensor-a", payload.Slug)
		assert.Equal(t, "19.99", payload.Price)
		require.Len(t, payload.Categories, 1)
		assert.Equal(t, domain.CategoryRef{RemoteID: 1, Name: "Sensors", Slug: "sensors"}, payload.Categories[0])
		assert.JSONEq(t, `{"id":11,"desc":"Sensor A","name":"SEN-A","slug":"sensor-a","price":"19.99","1st_categories":[{"id":1,"name":"Sensors","slug":"sensors"}]}`, string(payload.Raw))
	})

	t.Run("unreachable host returns a typed error", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1", newMemoryCache())

		_, err := client.GetProduct(context.Background(), "sensor-a")
		require.ErrorIs(t, err, e.ErrRemoteUnreachable)
	})
}

func TestListCategories(t *testing.T) {
	t.Run("each level has its own endpoint", func(t *testing.T) {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			w.Write([]byte(`{"data":[{"id":1,"name":"Sensors","slug":"sensors","desc":"measurement"}]}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, newMemoryCache())

		for level := 1; level <= 3; level++ {
			categories, err := client.ListCategories(context.Background(), level)
			require.NoError(t, err)
			require.Len(t, categories, 1)
			assert.Equal(t, "Sensors", categories[0].Name)
			assert.Equal(t, "measurement", categories[0].Description)
		}

		assert.Equal(t, []string{
			"/getProduct1stCategoryList",
			"/getProduct2ndCategoryList",
			"/getProduct3rdCategoryList",
		}, paths)
	})

	t.Run("rejects levels outside the range", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1", newMemoryCache())

		_, err := client.ListCategories(context.Background(), 4)
		require.ErrorIs(t, err, e.ErrInvalidLevel)
	})
}

func TestConnectionCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getProduct1stCategoryList", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":1,"name":"Sensors"},{"id":2,"name":"Controllers"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, newMemoryCache())

	count, err := client.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
