package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/osmparser"

	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"golang.org/x/exp/slog"
)

// OverpassFetcher ambil road way dan water feature dalam bbox dari Overpass API (format xml).
type OverpassFetcher struct {
	client  Doer
	url     string
	timeout time.Duration
	log     *slog.Logger
}

func NewOverpassFetcher(client Doer, url string, timeout time.Duration, log *slog.Logger) *OverpassFetcher {
	return &OverpassFetcher{client: client, url: url, timeout: timeout, log: log}
}

// OverpassQuery query overpass QL untuk bbox (south, west, north, east).
func OverpassQuery(bbox datastructure.BoundingBox, timeout time.Duration) string {
	b := fmt.Sprintf("%f,%f,%f,%f", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:xml][timeout:%d];\n(\n", int(timeout.Seconds()))
	fmt.Fprintf(&sb, "  way[\"highway\"](%s);\n", b)
	fmt.Fprintf(&sb, "  way[\"natural\"=\"water\"](%s);\n", b)
	fmt.Fprintf(&sb, "  way[\"waterway\"](%s);\n", b)
	fmt.Fprintf(&sb, "  way[\"landuse\"~\"reservoir|basin\"](%s);\n", b)
	sb.WriteString(");\n(._;>;);\nout body;\n")
	return sb.String()
}

func (f *OverpassFetcher) FetchRoadNetwork(ctx context.Context, bbox datastructure.BoundingBox) (*osmparser.ParseResult, error) {
	form := url.Values{}
	form.Set("data", OverpassQuery(bbox, f.timeout))
	req, err := http.NewRequest(http.MethodPost, f.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build overpass request: %v", ErrFetchFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := doRequest(ctx, f.client, req)
	if err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}

	scanner := osmxml.New(ctx, bytes.NewReader(body))
	defer scanner.Close()

	res, err := osmparser.NewOSMParser(nil, f.log).Parse(ctx, scanner)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass decode: %v", ErrFetchFailure, err)
	}
	return res, nil
}

// PBFFetcher baca road network dari file .osm.pbf lokal, node di luar bbox dibuang.
type PBFFetcher struct {
	path string
	log  *slog.Logger
}

func NewPBFFetcher(path string, log *slog.Logger) *PBFFetcher {
	return &PBFFetcher{path: path, log: log}
}

func (f *PBFFetcher) FetchRoadNetwork(ctx context.Context, bbox datastructure.BoundingBox) (*osmparser.ParseResult, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pbf %s: %v", ErrFetchFailure, f.path, err)
	}
	defer file.Close()

	scanner := osmpbf.New(ctx, file, runtime.GOMAXPROCS(-1))
	scanner.SkipRelations = true
	defer scanner.Close()

	res, err := osmparser.NewOSMParser(&bbox, f.log).Parse(ctx, scanner)
	if err != nil {
		return nil, fmt.Errorf("%w: pbf decode: %v", ErrFetchFailure, err)
	}
	return res, nil
}
