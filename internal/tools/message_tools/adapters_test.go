package message_tools

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

func TestSendGuestMessageResolvesGuestFromReservation(t *testing.T) {
	var sent atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations/r1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"r1","guestId":"g1"}`))
	})
	mux.HandleFunc("/communications", func(w http.ResponseWriter, r *http.Request) {
		sent.Store(true)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "r1", body["reservationId"])
		assert.Equal(t, "g1", body["guestId"])
		assert.Equal(t, "See you soon!", body["message"])
		assert.Equal(t, "Message from Property Manager", body["subject"])
		_, _ = w.Write([]byte(`{"_id":"c1"}`))
	})

	client, _ := newTestClient(t, mux)
	result, err := SendGuestMessage(context.Background(), client, map[string]any{
		"reservation_id": "r1",
		"message":        "See you soon!",
	})
	require.NoError(t, err)
	assert.True(t, sent.Load())

	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c1", body["_id"])
}

func TestSendGuestMessageAcceptsEmbeddedGuest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations/r2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"r2","guest":{"_id":"g2"}}`))
	})
	mux.HandleFunc("/communications", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "g2", body["guestId"])
		_, _ = w.Write([]byte(`{"_id":"c2"}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := SendGuestMessage(context.Background(), client, map[string]any{
		"reservation_id": "r2",
		"message":        "Hello",
		"subject":        "Check-in details",
	})
	require.NoError(t, err)
}

func TestSendGuestMessageWithoutLinkedGuest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations/r3", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"r3"}`))
	})
	mux.HandleFunc("/communications", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("communications must not be called for a reservation without a guest")
	})

	client, count := newTestClient(t, mux)
	_, err := SendGuestMessage(context.Background(), client, map[string]any{
		"reservation_id": "r3",
		"message":        "Hello",
	})
	toolErr := requireToolError(t, err, common.KindNotFound)
	assert.Equal(t, "Reservation has no linked guest", toolErr.Message)
	assert.Equal(t, int64(1), count.Load())
}

func TestSendGuestMessageReservationNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)
	_, err := SendGuestMessage(context.Background(), client, map[string]any{
		"reservation_id": "missing",
		"message":        "Hello",
	})
	toolErr := requireToolError(t, err, common.KindNotFound)
	assert.Equal(t, "Reservation not found", toolErr.Message)
}

func TestSendGuestMessageRejectsBlankMessage(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := SendGuestMessage(context.Background(), client, map[string]any{
		"reservation_id": "r1",
		"message":        "   ",
	})
	toolErr := requireToolError(t, err, common.KindValidation)
	assert.Equal(t, "message must not be blank", toolErr.Message)
	assert.Equal(t, int64(0), count.Load())
}

func TestGetGuestMessagesForwardsQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/communications", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "r1", r.URL.Query().Get("reservationId"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"results":[{"_id":"c1"},{"_id":"c2"}]}`))
	})

	client, _ := newTestClient(t, mux)
	result, err := GetGuestMessages(context.Background(), client, map[string]any{
		"reservation_id": "r1",
		"limit":          float64(20),
	})
	require.NoError(t, err)

	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Len(t, body["results"], 2)
}

func TestGetGuestMessagesRejectsNonPositiveLimit(t *testing.T) {
	client, count := newTestClient(t, http.NewServeMux())
	_, err := GetGuestMessages(context.Background(), client, map[string]any{
		"reservation_id": "r1",
		"limit":          float64(-5),
	})
	requireToolError(t, err, common.KindValidation)
	assert.Equal(t, int64(0), count.Load())
}

func TestLinkedGuestID(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"flat guestId", map[string]any{"guestId": "g1"}, "g1"},
		{"embedded _id", map[string]any{"guest": map[string]any{"_id": "g2"}}, "g2"},
		{"embedded id", map[string]any{"guest": map[string]any{"id": "g3"}}, "g3"},
		{"flat wins", map[string]any{"guestId": "g1", "guest": map[string]any{"_id": "g2"}}, "g1"},
		{"no guest", map[string]any{"_id": "r1"}, ""},
		{"not an object", "oops", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linkedGuestID(tt.body))
		})
	}
}
