package config

import (
	"fmt"
	"os"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/floodrisk"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig              `yaml:"server"`
	BBox        datastructure.BoundingBox `yaml:"bbox"`
	Ingestion   IngestionConfig           `yaml:"ingestion"`
	RoadNetwork RoadNetworkConfig         `yaml:"road_network"`
	Elevation   ElevationConfig           `yaml:"elevation"`
	Weather     WeatherConfig             `yaml:"weather"`
	Water       WaterConfig               `yaml:"water"`
	Flood       FloodConfig               `yaml:"flood"`
	Store       StoreConfig               `yaml:"store"`
	Routing     RoutingConfig             `yaml:"routing"`
	Log         LogConfig                 `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required"`
	SwaggerURL string `yaml:"swagger_url"`
}

type IngestionConfig struct {
	Interval      time.Duration `yaml:"interval" validate:"gt=0"`
	RunOnStartup  bool          `yaml:"run_on_startup"`
	MaxDuration   time.Duration `yaml:"max_duration" validate:"gte=0"`
	MinRefreshGap time.Duration `yaml:"min_refresh_gap" validate:"gte=0"`
	Workers       int           `yaml:"workers" validate:"gte=1"`
}

type RoadNetworkConfig struct {
	Source      string        `yaml:"source" validate:"oneof=overpass pbf"`
	OverpassURL string        `yaml:"overpass_url" validate:"required_if=Source overpass"`
	PBFFile     string        `yaml:"pbf_file" validate:"required_if=Source pbf"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries     int           `yaml:"retries" validate:"gte=0"`
}

type ElevationConfig struct {
	URL            string        `yaml:"url" validate:"required"`
	BatchSize      int           `yaml:"batch_size" validate:"gte=1"`
	BatchDelay     time.Duration `yaml:"batch_delay" validate:"gte=0"`
	CachePermanent bool          `yaml:"cache_permanent"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries        int           `yaml:"retries" validate:"gte=0"`
}

type WeatherConfig struct {
	URL     string        `yaml:"url" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries int           `yaml:"retries" validate:"gte=0"`
}

type WaterConfig struct {
	Enabled         bool    `yaml:"enabled"`
	SearchRadiusM   float64 `yaml:"search_radius_m" validate:"gt=0"`
	DefaultDistance float64 `yaml:"default_distance_m" validate:"gt=0"`
	H3Resolution    int     `yaml:"h3_resolution" validate:"gte=0,lte=15"`
}

type FloodConfig struct {
	Thresholds floodrisk.Thresholds `yaml:"thresholds"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=memory pebble geojson postgres"`
	PebbleDir   string `yaml:"pebble_dir" validate:"required_if=Backend pebble"`
	GeoJSONFile string `yaml:"geojson_file" validate:"required_if=Backend geojson"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
}

type RoutingConfig struct {
	MaxSnapDistanceM float64 `yaml:"max_snap_distance_m" validate:"gt=0"`
	WalkingSpeedKmh  float64 `yaml:"walking_speed_kmh" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Default config untuk Surakarta.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: ":5000",
			SwaggerURL: "http://localhost:5000/swagger/doc.json",
		},
		BBox: datastructure.BoundingBox{MinLat: -7.6008, MinLon: 110.7558, MaxLat: -7.5226, MaxLon: 110.8716},
		Ingestion: IngestionConfig{
			Interval:      6 * time.Hour,
			RunOnStartup:  true,
			MaxDuration:   30 * time.Minute,
			MinRefreshGap: 5 * time.Minute,
			Workers:       4,
		},
		RoadNetwork: RoadNetworkConfig{
			Source:      "overpass",
			OverpassURL: "https://overpass-api.de/api/interpreter",
			Timeout:     120 * time.Second,
			Retries:     2,
		},
		Elevation: ElevationConfig{
			URL:        "https://api.open-elevation.com/api/v1/lookup",
			BatchSize:  100,
			BatchDelay: time.Second,
			Timeout:    30 * time.Second,
			Retries:    1,
		},
		Weather: WeatherConfig{
			URL:     "https://api.open-meteo.com/v1/forecast",
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		Water: WaterConfig{
			Enabled:         true,
			SearchRadiusM:   1500,
			DefaultDistance: 5000,
			H3Resolution:    8,
		},
		Flood: FloodConfig{Thresholds: floodrisk.DefaultThresholds()},
		Store: StoreConfig{
			Backend:   "pebble",
			PebbleDir: "floodnavDB",
		},
		Routing: RoutingConfig{
			MaxSnapDistanceM: 1000,
			WalkingSpeedKmh:  5,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load baca yaml config di atas Default(). path kosong berarti Default() saja. Env PORT & LOG_LEVEL override file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.ListenAddr = ":" + port
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
