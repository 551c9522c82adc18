package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/domain/job"
)

const defaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// Geocoder resolves a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (job.Location, error)
}

// OpenCage is a thin client for the OpenCage forward-geocoding API.
type OpenCage struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewOpenCage(apiKey string) *OpenCage {
	return &OpenCage{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Formatted string `json:"formatted"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Geocode returns the best match for address. An address the provider cannot
// resolve is a caller problem; a provider failure is a dependency problem.
func (c *OpenCage) Geocode(ctx context.Context, address string) (job.Location, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("key", c.apiKey)
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return job.Location{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return job.Location{}, apperrors.Dependency("geocoding service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return job.Location{}, apperrors.Dependency("geocoding service unavailable",
			fmt.Errorf("geocode: unexpected status %d", resp.StatusCode))
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return job.Location{}, apperrors.Dependency("geocoding service unavailable", err)
	}

	if len(body.Results) == 0 {
		return job.Location{}, apperrors.Validation("could not resolve the given address")
	}

	r := body.Results[0]
	return job.Location{
		Lat:       r.Geometry.Lat,
		Lng:       r.Geometry.Lng,
		Formatted: r.Formatted,
	}, nil
}
