// Package geo turns report coordinates into a human readable address.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

// Resolver does reverse geocoding against an OpenStreetMap Nominatim endpoint.
type Resolver struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewResolver(endpoint, userAgent string) *Resolver {
	if endpoint == "" {
		endpoint = DefaultNominatimURL
	}
	return &Resolver{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Address never fails; when the lookup does, the coordinates are returned
// formatted instead.
func (r *Resolver) Address(ctx context.Context, lat, lon float64) string {
	addr, err := r.lookup(ctx, lat, lon)
	if err != nil {
		log.WithError(err).Warn("Error fetching address")
		return Fallback(lat, lon)
	}
	if addr == "" {
		return Fallback(lat, lon)
	}
	return addr
}

func Fallback(lat, lon float64) string {
	return fmt.Sprintf("Location: %.5f, %.5f", lat, lon)
}

func (r *Resolver) lookup(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim API error: %s", resp.Status)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode nominatim response: %w", err)
	}
	return body.DisplayName, nil
}
