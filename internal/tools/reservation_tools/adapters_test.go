package reservation_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

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

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestGetReservationNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)
	_, err := GetReservation(context.Background(), client, map[string]any{"reservation_id": "missing"})
	toolErr := requireToolError(t, err, common.KindNotFound)
	assert.Equal(t, "Reservation not found", toolErr.Message)
}

func TestCreateReservationRequiresGuest(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
	})
	toolErr := requireToolError(t, err, common.KindValidation)
	assert.Equal(t, "either guest_id or guest_data is required", toolErr.Message)
	assert.Equal(t, int64(0), count.Load())
}

func TestCreateReservationRejectsUnknownStatus(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
		"guest_id":   "g1",
		"status":     "tentative",
	})
	requireToolError(t, err, common.KindValidation)
	assert.Equal(t, int64(0), count.Load())
}

func TestCreateReservationWithExistingGuest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body := decodeBody(t, r)
		assert.Equal(t, "l1", body["listingId"])
		assert.Equal(t, "2026-07-05", body["checkInDate"])
		assert.Equal(t, "2026-07-10", body["checkOutDate"])
		assert.Equal(t, "inquiry", body["status"])
		assert.Equal(t, "g1", body["guestId"])
		_, _ = w.Write([]byte(`{"_id":"r1","status":"inquiry"}`))
	})

	client, count := newTestClient(t, mux)
	result, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
		"guest_id":   "g1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Load(), "existing guest skips the guest-create call")

	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "r1", body["_id"])
}

func TestCreateReservationCreatesGuestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/guests", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body := decodeBody(t, r)
		assert.Equal(t, "Ada", body["firstName"])
		_, _ = w.Write([]byte(`{"_id":"g-new"}`))
	})
	mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "g-new", body["guestId"])
		_, _ = w.Write([]byte(`{"_id":"r2"}`))
	})

	client, count := newTestClient(t, mux)
	result, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
		"status":     "confirmed",
		"guest_data": map[string]any{"firstName": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Load(), "guest create precedes reservation create")
	assert.NotNil(t, result)
}

func TestCreateReservationGuestCreateWithoutID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/guests", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	client, count := newTestClient(t, mux)
	_, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
		"guest_data": map[string]any{"firstName": "Ada"},
	})
	requireToolError(t, err, common.KindUpstream)
	assert.Equal(t, int64(1), count.Load(), "reservation create must not run without a guest id")
}

func TestCreateReservationConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"dates unavailable"}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := CreateReservation(context.Background(), client, map[string]any{
		"listing_id": "l1",
		"check_in":   "2026-07-05",
		"check_out":  "2026-07-10",
		"guest_id":   "g1",
	})
	toolErr := requireToolError(t, err, common.KindConflict)
	assert.Equal(t, "Property is not available for the specified dates", toolErr.Message)
}

func TestClassifyCreateErrorDisambiguates404(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"guest missing", `{"message":"Guest not found"}`, "Guest not found"},
		{"listing missing", `{"message":"Listing not found"}`, "Listing not found"},
		{"both mentioned", `{"message":"guest or listing not found"}`, "Listing not found"},
		{"neither mentioned", `{"message":"no such resource"}`, "Listing not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyCreateError(&pms.APIError{
				Method:     http.MethodPost,
				Path:       "/reservations",
				StatusCode: http.StatusNotFound,
				Body:       []byte(tt.body),
			})
			var toolErr *common.ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, common.KindNotFound, toolErr.Kind)
			assert.Equal(t, tt.want, toolErr.Message)
		})
	}
}

func TestCreatedID(t *testing.T) {
	assert.Equal(t, "a", createdID(map[string]any{"_id": "a"}))
	assert.Equal(t, "b", createdID(map[string]any{"id": "b"}))
	assert.Equal(t, "a", createdID(map[string]any{"_id": "a", "id": "b"}), "_id wins over id")
	assert.Equal(t, "", createdID(map[string]any{}))
	assert.Equal(t, "", createdID("not an object"))
}
