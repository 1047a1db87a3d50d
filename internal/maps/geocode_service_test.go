// README: Geocoding tests against a fake Maps server.
package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"googlemaps.github.io/maps"
)

func newTestGeocoder(t *testing.T, status, body string) *GeocodeService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "" {
			t.Errorf("request without address: %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"` + status + `","results":` + body + `}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewGeocodeService("test-key", maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGeocodeService() error = %v", err)
	}
	return svc
}

func TestGeocode(t *testing.T) {
	svc := newTestGeocoder(t, "OK", `[{"formatted_address":"JFK Airport","geometry":{"location":{"lat":40.6413,"lng":-73.7781}}}]`)

	p, err := svc.Geocode(context.Background(), "JFK Airport, Queens, NY")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if p.Lat != 40.6413 || p.Lng != -73.7781 {
		t.Errorf("Geocode() = %+v", p)
	}
}

func TestGeocode_NotFound(t *testing.T) {
	svc := newTestGeocoder(t, "ZERO_RESULTS", `[]`)
	if _, err := svc.Geocode(context.Background(), "nowhere at all"); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("Geocode() error = %v, want ErrAddressNotFound", err)
	}
}

func TestGeocode_EmptyAddress(t *testing.T) {
	svc := newTestGeocoder(t, "OK", `[]`)
	if _, err := svc.Geocode(context.Background(), "   "); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("Geocode() error = %v, want ErrAddressNotFound", err)
	}
}

func TestGeocode_APIError(t *testing.T) {
	svc := newTestGeocoder(t, "REQUEST_DENIED", `[]`)
	_, err := svc.Geocode(context.Background(), "JFK Airport")
	if err == nil || errors.Is(err, ErrAddressNotFound) {
		t.Errorf("Geocode() error = %v, want an API error", err)
	}
}
