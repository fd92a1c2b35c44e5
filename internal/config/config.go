package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
)

// ErrMissing is returned when a backend is selected without the settings it needs.
var ErrMissing = errors.New("missing configuration")

type Config struct {
	CosmosEndpoint string `json:"cosmos_endpoint"`
	CosmosKey      string `json:"cosmos_key"`
	CosmosDatabase string `json:"cosmos_database"`

	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	Workers  int    `json:"workers"`
	Schedule string `json:"schedule"`
	Port     string `json:"port"`

	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3PathStyle bool   `json:"s3_path_style"`
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return def
}

func Defaults() Config {
	return Config{
		CosmosDatabase: "robopd2-cosmosdb",
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "robopd2",
		Workers:        1,
		Schedule:       "@every 24h",
		Port:           "8080",
		S3Region:       "us-east-1",
	}
}

// Load builds the configuration once at startup: defaults, then the optional
// JSONC file at path, then the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		std, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: invalid JSONC: %w", path, err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.CosmosEndpoint = getenv("AZURE_COSMOSDB_ENDPOINT", cfg.CosmosEndpoint)
	cfg.CosmosKey = getenv("AZURE_COSMOSDB_KEY", cfg.CosmosKey)
	cfg.CosmosDatabase = getenv("AZURE_COSMOSDB_DATABASE", cfg.CosmosDatabase)
	cfg.MongoURI = getenv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDatabase = getenv("MONGODB_DATABASE", cfg.MongoDatabase)
	cfg.Workers = getenvInt("LOADER_WORKERS", cfg.Workers)
	cfg.Schedule = getenv("LOADER_SCHEDULE", cfg.Schedule)
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.S3Region = getenv("LOADER_S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getenv("LOADER_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3PathStyle = getenvBool("LOADER_S3_PATH_STYLE", cfg.S3PathStyle)

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}
