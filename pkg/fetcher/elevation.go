package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"lintang/floodnav/pkg/datastructure"
)

type elevationLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type elevationRequest struct {
	Locations []elevationLocation `json:"locations"`
}

type elevationResult struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

type elevationResponse struct {
	Results []elevationResult `json:"results"`
}

// OpenElevationFetcher batch lookup ke Open-Elevation compatible API.
type OpenElevationFetcher struct {
	client Doer
	url    string
}

func NewOpenElevationFetcher(client Doer, url string) *OpenElevationFetcher {
	return &OpenElevationFetcher{client: client, url: url}
}

// FetchElevations satu batch. Hasil selalu sepanjang coords, result yang hilang/null bernilai NaN
// supaya caller bisa membedakan dengan elevasi 0 m yang asli.
func (f *OpenElevationFetcher) FetchElevations(ctx context.Context, coords []datastructure.Coordinate) ([]float64, error) {
	payload := elevationRequest{Locations: make([]elevationLocation, len(coords))}
	for i, c := range coords {
		payload.Locations[i] = elevationLocation{Latitude: c.Lat, Longitude: c.Lon}
	}
	bb, err := json.Marshal(&payload)
	if err != nil {
		return nil, fmt.Errorf("elevation: encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, f.url, bytes.NewReader(bb))
	if err != nil {
		return nil, fmt.Errorf("%w: build elevation request: %v", ErrFetchFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(ctx, f.client, req)
	if err != nil {
		return nil, fmt.Errorf("elevation: %w", err)
	}

	var resp elevationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: elevation decode: %v", ErrFetchFailure, err)
	}

	elevations := make([]float64, len(coords))
	for i := range elevations {
		elevations[i] = math.NaN()
		if i < len(resp.Results) && resp.Results[i].Elevation != nil {
			elevations[i] = *resp.Results[i].Elevation
		}
	}
	return elevations, nil
}
