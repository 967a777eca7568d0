package tutorapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"tutorcal/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetTutorProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/tutors/me", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"timezone": "Europe/Lisbon",
			"version":  4,
			"availabilities": []map[string]any{
				{"day_of_week": 1, "start_time": "09:00:00", "end_time": "12:00:00"},
			},
			"bio": "ignored",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"}), time.Second)
	profile, err := c.GetTutorProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", profile.Timezone)
	assert.Equal(t, int64(4), profile.Version)
	require.Len(t, profile.Availabilities, 1)
	assert.Equal(t, "09:00:00", profile.Availabilities[0].StartTime)
}

func TestClient_ReplaceAvailability(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/v1/tutors/me/availability", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req ReplaceAvailabilityRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(4), req.Version)
			assert.Equal(t, "UTC", req.Timezone)
			if assert.Len(t, req.Availability, 1) {
				assert.True(t, req.Availability[0].IsRecurring)
			}

			writeJSON(w, http.StatusOK, model.TutorProfile{Timezone: req.Timezone, Version: 5, Availabilities: req.Availability})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil, time.Second)
		profile, err := c.ReplaceAvailability(context.Background(), ReplaceAvailabilityRequest{
			Availability: []model.WeeklyAvailabilityRule{{DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00", IsRecurring: true}},
			Timezone:     "UTC",
			Version:      4,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), profile.Version)
	})

	t.Run("EmptySetIsArray", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var raw map[string]json.RawMessage
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			assert.Equal(t, "[]", string(raw["availability"]))
			writeJSON(w, http.StatusOK, model.TutorProfile{Version: 2})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil, time.Second).ReplaceAvailability(context.Background(), ReplaceAvailabilityRequest{Version: 1})
		require.NoError(t, err)
	})

	t.Run("Conflict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "version mismatch"})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil, time.Second).ReplaceAvailability(context.Background(), ReplaceAvailabilityRequest{Version: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NotErrorIs(t, err, ErrValidation)
		assert.Equal(t, "version mismatch", Detail(err))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	})

	t.Run("Validation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": []map[string]string{{"msg": "end_time must be after start_time"}, {"msg": "bad day"}},
			})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil, time.Second).ReplaceAvailability(context.Background(), ReplaceAvailabilityRequest{Version: 1})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "end_time must be after start_time; bad day", Detail(err))
	})
}

func TestClient_ListBookings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bookings", r.URL.Path)
		assert.Equal(t, "tutor", r.URL.Query().Get("role"))
		assert.Equal(t, "upcoming", r.URL.Query().Get("status"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		writeJSON(w, http.StatusOK, map[string]any{
			"bookings": []map[string]any{{
				"id":           9,
				"start_at":     "2024-06-18T14:00:00Z",
				"end_at":       "2024-06-18T15:00:00Z",
				"lesson_type":  "TRIAL",
				"status":       "pending",
				"student":      map[string]any{"id": 3, "first_name": "Ana", "last_name": "Lima"},
				"subject_name": "Physics",
			}},
		})
	}))
	defer srv.Close()

	bookings, err := NewClient(srv.URL, nil, time.Second).ListBookings(context.Background(), BookingQuery{Role: "tutor", Status: "upcoming", PageSize: 50})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, int64(9), bookings[0].ID)
	assert.Equal(t, time.Hour, bookings[0].Duration())
	assert.Equal(t, "Ana Lima", bookings[0].Student.DisplayName())
}

func TestClient_BookingActions(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/v1/bookings/3/decline" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking is not pending"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	require.NoError(t, c.ConfirmBooking(context.Background(), 2))
	err := c.DeclineBooking(context.Background(), 3)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "booking is not pending", Detail(err))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/api/v1/bookings/2/confirm", "/api/v1/bookings/3/decline"}, paths)
}

func TestClient_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var profileHits, bookingHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/tutors/me":
			profileHits.Add(1)
			writeJSON(w, http.StatusOK, model.TutorProfile{Version: int64(profileHits.Load())})
		case r.URL.Path == "/api/v1/tutors/me/availability":
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "stale"})
		case r.URL.Path == "/api/v1/bookings":
			bookingHits.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"bookings": []any{}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	p1, err := c.GetTutorProfile(ctx)
	require.NoError(t, err)
	p2, err := c.GetTutorProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p1.Version, p2.Version)
	assert.Equal(t, int32(1), profileHits.Load())

	// A conflict drops the cached profile so the reload sees the server state.
	_, err = c.ReplaceAvailability(ctx, ReplaceAvailabilityRequest{Version: p1.Version})
	require.ErrorIs(t, err, ErrConflict)
	p3, err := c.GetTutorProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p3.Version)

	q := BookingQuery{Role: "tutor", Status: "upcoming", PageSize: 10}
	_, err = c.ListBookings(ctx, q)
	require.NoError(t, err)
	_, err = c.ListBookings(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), bookingHits.Load())

	require.NoError(t, c.ConfirmBooking(ctx, 1))
	_, err = c.ListBookings(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), bookingHits.Load())
}

func TestClient_RedisCacheScopedByToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	tutors := map[string]model.TutorProfile{
		"Bearer alice": {Timezone: "Europe/Berlin", Version: 1},
		"Bearer bob":   {Timezone: "America/Santiago", Version: 7},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/tutors/me":
			p, ok := tutors[r.Header.Get("Authorization")]
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, p)
		case "/api/v1/bookings":
			id := 1
			if r.Header.Get("Authorization") == "Bearer bob" {
				id = 2
			}
			writeJSON(w, http.StatusOK, map[string]any{"bookings": []map[string]any{{"id": id}}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	newClient := func(token string) *Client {
		c := NewClient(srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), time.Second)
		c.UseRedisCache(rdb, time.Minute)
		return c
	}
	alice, bob := newClient("alice"), newClient("bob")
	ctx := context.Background()

	pa, err := alice.GetTutorProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", pa.Timezone)

	pb, err := bob.GetTutorProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "America/Santiago", pb.Timezone)
	assert.Equal(t, int64(7), pb.Version)

	q := BookingQuery{Role: "tutor"}
	ba, err := alice.ListBookings(ctx, q)
	require.NoError(t, err)
	bb, err := bob.ListBookings(ctx, q)
	require.NoError(t, err)
	require.Len(t, ba, 1)
	require.Len(t, bb, 1)
	assert.Equal(t, int64(1), ba[0].ID)
	assert.Equal(t, int64(2), bb[0].ID)

	// A decision by one tutor leaves the other tutor's cached bookings alone.
	before := len(mr.Keys())
	require.NoError(t, bob.ConfirmBooking(ctx, 2))
	assert.Equal(t, before-1, len(mr.Keys()))
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	c.UseRateLimit(0.001, 1)
	require.NoError(t, c.HealthCheck(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.HealthCheck(ctx))
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Method: "GET", Path: "/x", StatusCode: 500}
	assert.Equal(t, "GET /x: http 500", err.Error())
	assert.ErrorIs(t, &APIError{StatusCode: 404}, ErrNotFound)
	assert.Empty(t, Detail(errors.New("plain")))
	assert.Equal(t, "oops", parseDetail([]byte(`{"message":"oops"}`)))
	assert.Empty(t, parseDetail([]byte(`not json`)))
}
