package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *fixture) {
	t.Helper()
	f := newFixture(t)
	srv := httptest.NewServer(NewHandler(f.svc).Routes())
	t.Cleanup(srv.Close)
	return srv, f
}

func postReservation(t *testing.T, srv *httptest.Server, body map[string]any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/reservations", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestHandlerReserveAndConflict(t *testing.T) {
	srv, f := newTestServer(t)

	body := map[string]any{
		"member_id": f.member.ID,
		"item_id":   f.book.ID,
		"starts_at": hour(10),
		"ends_at":   hour(12),
	}

	resp := postReservation(t, srv, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, f.book.ID, created.ItemID)

	resp = postReservation(t, srv, body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var apiErr errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "conflict", apiErr.Code)
}

func TestHandlerReserveErrorStatuses(t *testing.T) {
	srv, f := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name: "invalid interval",
			body: map[string]any{
				"member_id": f.member.ID, "item_id": f.book.ID,
				"starts_at": hour(12), "ends_at": hour(12),
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_interval",
		},
		{
			name: "unknown item",
			body: map[string]any{
				"member_id": f.member.ID, "item_id": "0a0a0a0a-0a0a-0a0a-0a0a-0a0a0a0a0a0a",
				"starts_at": hour(10), "ends_at": hour(11),
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "item_not_found",
		},
		{
			name: "unknown member",
			body: map[string]any{
				"member_id": "0b0b0b0b-0b0b-0b0b-0b0b-0b0b0b0b0b0b", "item_id": f.book.ID,
				"starts_at": hour(10), "ends_at": hour(11),
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unknown_member",
		},
		{
			name:       "missing ids",
			body:       map[string]any{"starts_at": hour(10), "ends_at": hour(11)},
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_required_field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postReservation(t, srv, tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var apiErr errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestHandlerAvailability(t *testing.T) {
	srv, f := newTestServer(t)

	resp := postReservation(t, srv, map[string]any{
		"member_id": f.member.ID, "item_id": f.book.ID,
		"starts_at": hour(9), "ends_at": hour(10),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	url := fmt.Sprintf("%s/items/%s/availability?as_of=%s", srv.URL, f.book.ID, hour(9).Add(30*time.Minute).Format(time.RFC3339))
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var avail Availability
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&avail))
	assert.False(t, avail.Available)
	assert.Equal(t, f.book.Title, avail.Title)

	url = fmt.Sprintf("%s/items/%s/availability?as_of=%s", srv.URL, f.book.ID, hour(10).Format(time.RFC3339))
	resp, err = http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&avail))
	assert.True(t, avail.Available, "boundary instant is free")
}

func TestHandlerRelease(t *testing.T) {
	srv, f := newTestServer(t)

	resp := postReservation(t, srv, map[string]any{
		"member_id": f.member.ID, "item_id": f.book.ID,
		"starts_at": hour(10), "ends_at": hour(11),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/reservations/%s", srv.URL, created.ID), nil)
	require.NoError(t, err)
	req.Header.Set("X-Member-ID", f.member2.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "only the holder may release")

	req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/reservations/%s", srv.URL, created.ID), nil)
	require.NoError(t, err)
	req.Header.Set("X-Member-ID", f.member.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
