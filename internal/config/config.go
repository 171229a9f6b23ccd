package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// #region config
// Config is the runtime configuration of the twinctl binaries.
type Config struct {
	DBPath         string // empty disables persistence
	TwinConfigPath string // JSON or YAML twin configuration; empty uses the built-in default
	GRPCAddr       string
	MetricsAddr    string
	LogLevel       string
	LogFormat      string
	ShortTermLimit int // 0 keeps the configured value
	TraceExporter  string // otlp, stdout or none
	OTLPEndpoint   string
}
// #endregion config

// #region load
// Load reads optional dotenv files (default ".env"), then the environment.
// Variables already set in the environment win over dotenv values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		DBPath:         os.Getenv("TWIN_DB"),
		TwinConfigPath: os.Getenv("TWIN_CONFIG"),
		GRPCAddr:       envOr("TWIN_GRPC_ADDR", ":50071"),
		MetricsAddr:    envOr("TWIN_METRICS_ADDR", ":9464"),
		LogLevel:       envOr("TWIN_LOG_LEVEL", "info"),
		LogFormat:      envOr("TWIN_LOG_FORMAT", "text"),
		TraceExporter:  envOr("OTEL_TRACES_EXPORTER", "none"),
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
	if v := os.Getenv("TWIN_SHORT_TERM_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("TWIN_SHORT_TERM_LIMIT: want a non-negative integer, got %q", v)
		}
		cfg.ShortTermLimit = n
	}
	return cfg, nil
}
// #endregion load

// #region twin-config
// LoadTwinConfig reads a twin configuration file and returns it as JSON.
// .yaml and .yml files are converted; .json files are returned verbatim.
func LoadTwinConfig(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read twin config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return data, nil
	case ".yaml", ".yml":
		out, err := YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("twin config %s: unsupported extension %q", path, filepath.Ext(path))
}

// YAMLToJSON decodes a YAML document and re-encodes it as JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	out, err := json.Marshal(normalize(doc))
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// normalize turns YAML maps with non-string keys into JSON-compatible maps.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
// #endregion twin-config

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
