package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"lintang/floodnav/pkg/datastructure"
)

type weatherResponse struct {
	Current struct {
		Time          string   `json:"time"`
		Precipitation *float64 `json:"precipitation"`
	} `json:"current"`
}

// OpenMeteoFetcher precipitation (mm/h) terkini dari Open-Meteo forecast API.
type OpenMeteoFetcher struct {
	client Doer
	url    string
}

func NewOpenMeteoFetcher(client Doer, url string) *OpenMeteoFetcher {
	return &OpenMeteoFetcher{client: client, url: url}
}

func (f *OpenMeteoFetcher) FetchPrecipitation(ctx context.Context, c datastructure.Coordinate) (float64, error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return 0, fmt.Errorf("%w: weather url: %v", ErrFetchFailure, err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(c.Lat, 'f', 5, 64))
	q.Set("longitude", strconv.FormatFloat(c.Lon, 'f', 5, 64))
	q.Set("current", "precipitation")
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build weather request: %v", ErrFetchFailure, err)
	}

	body, err := doRequest(ctx, f.client, req)
	if err != nil {
		return 0, fmt.Errorf("weather: %w", err)
	}

	var resp weatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: weather decode: %v", ErrFetchFailure, err)
	}
	if resp.Current.Precipitation == nil {
		return 0, nil
	}
	return *resp.Current.Precipitation, nil
}
