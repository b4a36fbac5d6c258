package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient("test-key", server.URL, nil, time.Second)
}

func TestTextSearchSuccess(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		require.Equal(t, "pet friendly cafes in Lisbon", query.Get("query"))
		require.Equal(t, "test-key", query.Get("key"))
		require.Equal(t, "cafe", query.Get("type"))
		require.Equal(t, "38.700000,-9.100000", query.Get("location"))
		require.Equal(t, "20000", query.Get("radius"))
		require.Equal(t, "2", query.Get("maxprice"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id":"p1","name":"Cafe Lisboa","formatted_address":"Rua A, Lisbon",
				 "geometry":{"location":{"lat":38.71,"lng":-9.13}},"rating":4.6,"price_level":2},
				{"place_id":"p2","name":"Cafe Alfama","vicinity":"Alfama","rating":4.2}
			]
		}`))
	})

	maxPrice := 2
	results, err := client.TextSearch(context.Background(), "pet friendly cafes in Lisbon", SearchOptions{
		Type:         "cafe",
		Latitude:     38.7,
		Longitude:    -9.1,
		RadiusMeters: 20000,
		MaxPrice:     &maxPrice,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "p1", results[0].ID)
	require.Equal(t, "Rua A, Lisbon", results[0].Address)
	require.NotNil(t, results[0].PriceLevel)
	require.Equal(t, 2, *results[0].PriceLevel)
	require.Equal(t, "Alfama", results[1].Address, "vicinity backfills a missing formatted address")
}

func TestTextSearchZeroResults(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	results, err := client.TextSearch(context.Background(), "anything", SearchOptions{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestTextSearchAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	})

	_, err := client.TextSearch(context.Background(), "anything", SearchOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestTextSearchMaxResults(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"A"},{"place_id":"p2","name":"B"},{"place_id":"p3","name":"C"}
		]}`))
	})

	results, err := client.TextSearch(context.Background(), "anything", SearchOptions{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestPlaceDetails(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "hotel-1", r.URL.Query().Get("place_id"))
		require.NotEmpty(t, r.URL.Query().Get("fields"))
		w.Write([]byte(`{"status":"OK","result":{
			"place_id":"hotel-1","name":"Casa do Cao","formatted_address":"Alfama, Lisbon",
			"website":"https://casadocao.example","formatted_phone_number":"+351 21 000 0000"
		}}`))
	})

	place, err := client.PlaceDetails(context.Background(), "hotel-1")
	require.NoError(t, err)
	require.Equal(t, "Casa do Cao", place.Name)
	require.Equal(t, "https://casadocao.example", place.Website)
	require.Equal(t, "+351 21 000 0000", place.Phone)
}

func TestPlaceDetailsNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"NOT_FOUND"}`))
	})

	_, err := client.PlaceDetails(context.Background(), "missing")
	require.Error(t, err)
}
