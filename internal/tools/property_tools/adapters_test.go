package property_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// newTestClient wires a client against a local server that also answers the
// token grant. The counter tracks resource requests only.
func newTestClient(t *testing.T, mux *http.ServeMux) (*pms.Client, *atomic.Int64) {
	t.Helper()
	var count atomic.Int64
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": 3600})
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			count.Add(1)
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	transport, err := pms.NewTransport(srv.URL, nil)
	require.NoError(t, err)
	auth := pms.NewTokenManager(srv.URL+"/oauth2/token", pms.Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scope:        "open-api",
	}, transport, nil)
	return pms.NewClient(transport, auth, nil), &count
}

func requireToolError(t *testing.T, err error, kind common.ErrorKind) *common.ToolError {
	t.Helper()
	require.Error(t, err)
	var toolErr *common.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, kind, toolErr.Kind)
	return toolErr
}

func TestListPropertiesForwardsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("skip"))
		assert.JSONEq(t, `{"city":"Lisbon"}`, r.URL.Query().Get("filters"))
		_, _ = w.Write([]byte(`{"results":[{"_id":"l1"}]}`))
	})

	client, _ := newTestClient(t, mux)
	result, err := ListProperties(context.Background(), client, map[string]any{
		"limit":   float64(25),
		"skip":    float64(50),
		"filters": map[string]any{"city": "Lisbon"},
	})
	require.NoError(t, err)

	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Len(t, body["results"], 1)
}

func TestListPropertiesRejectsBadLimit(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := ListProperties(context.Background(), client, map[string]any{"limit": float64(0)})
	requireToolError(t, err, common.KindValidation)
	assert.Equal(t, int64(0), count.Load())
}

func TestGetPropertyRequiresID(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := GetProperty(context.Background(), client, map[string]any{})
	toolErr := requireToolError(t, err, common.KindValidation)
	assert.Equal(t, "property_id is required", toolErr.Message)
	assert.Equal(t, int64(0), count.Load())
}

func TestGetPropertyNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listings/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Listing not found"}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := GetProperty(context.Background(), client, map[string]any{"property_id": "missing"})
	toolErr := requireToolError(t, err, common.KindNotFound)
	assert.Equal(t, "Property not found", toolErr.Message)
}

func TestGetPropertyForwardsFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listings/l1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "title prices", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"_id":"l1","title":"Beach House"}`))
	})

	client, _ := newTestClient(t, mux)
	result, err := GetProperty(context.Background(), client, map[string]any{
		"property_id": "l1",
		"fields":      "title prices",
	})
	require.NoError(t, err)

	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Beach House", body["title"])
}

func TestCheckAvailabilityRejectsReversedDates(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := CheckAvailability(context.Background(), client, map[string]any{
		"check_in":  "2026-07-10",
		"check_out": "2026-07-05",
	})
	toolErr := requireToolError(t, err, common.KindValidation)
	assert.Equal(t, "check_out must be after check_in", toolErr.Message)
	assert.Equal(t, int64(0), count.Load(), "validation failures must not reach the upstream")
}

func TestCheckAvailabilityBuildsQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listings", func(w http.ResponseWriter, r *http.Request) {
		var availability map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("available")), &availability))
		assert.Equal(t, "2026-07-05", availability["checkIn"])
		assert.Equal(t, "2026-07-10", availability["checkOut"])
		assert.Equal(t, float64(4), availability["minOccupancy"])
		assert.Equal(t, "l1", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"results":[{"_id":"l1"}]}`))
	})

	client, _ := newTestClient(t, mux)
	result, err := CheckAvailability(context.Background(), client, map[string]any{
		"check_in":      "2026-07-05",
		"check_out":     "2026-07-10",
		"min_occupancy": float64(4),
		"property_id":   "l1",
	})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
