package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nhle/restaurant-notify/internal/source"
)

func testConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewConnector(srv.URL, "test-token", 5*time.Second)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"orders":[]}`))
	})

	if _, err := c.OwnOrders(context.Background()); err != nil {
		t.Fatalf("OwnOrders: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestClientClassifiesUnauthorized(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.OwnOrders(context.Background())
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !source.IsAuthError(err) {
		t.Errorf("err = %v, want AuthError", err)
	}
}

func TestClientClassifiesRateLimit(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.IncomingOrders(context.Background())
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !source.IsRateLimitError(err) {
		t.Errorf("err = %v, want RateLimitError", err)
	}
	if source.IsAuthError(err) {
		t.Error("429 misclassified as auth error")
	}
}

func TestClientSurfacesAPIErrorEnvelope(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database unavailable"}`))
	})

	_, err := c.OwnOrders(context.Background())
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if source.IsAuthError(err) || source.IsRateLimitError(err) {
		t.Errorf("5xx misclassified as terminal: %v", err)
	}
}

func TestOwnOrdersParsesRecords(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/my" {
			t.Errorf("path = %q, want /api/orders/my", r.URL.Path)
		}
		w.Write([]byte(`{"orders":[
			{"id":"o1","status":"confirmed","order_number":"1042",
			 "created_at":"2026-03-14T11:30:00Z"}
		]}`))
	})

	orders, err := c.OwnOrders(context.Background())
	if err != nil {
		t.Fatalf("OwnOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	o := orders[0]
	if o.ID != "o1" || o.Status != "confirmed" || o.OrderNumber != "1042" {
		t.Errorf("order = %+v", o)
	}
	want := time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC)
	if !o.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", o.CreatedAt, want)
	}
}

func TestPendingReviewsParsesMenuItem(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reviews":[
			{"id":"r1","status":"pending","menu_item_id":"m1",
			 "menu_item":{"name":"Pad Thai"},
			 "created_at":"2026-03-14T11:30:00Z"}
		]}`))
	})

	reviews, err := c.PendingReviews(context.Background())
	if err != nil {
		t.Fatalf("PendingReviews: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(reviews))
	}
	if reviews[0].MenuItemName != "Pad Thai" {
		t.Errorf("menu item name = %q, want Pad Thai", reviews[0].MenuItemName)
	}
}

func TestMalformedTimestampYieldsZeroTime(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[
			{"id":"u1","role":"customer","created_at":"not-a-time"}
		]}`))
	})

	users, err := c.RecentCustomers(context.Background())
	if err != nil {
		t.Fatalf("RecentCustomers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
	if !users[0].CreatedAt.IsZero() {
		t.Errorf("created_at = %v, want zero time", users[0].CreatedAt)
	}
}
