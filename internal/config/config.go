package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// weightEpsilon is the tolerance for weight-sum validation.
const weightEpsilon = 1e-6

// Config holds the docdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Auth       AuthConfig       `yaml:"auth"`
	Search     SearchConfig     `yaml:"search"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
	CacheSize  int    `yaml:"cache_size"`
}

// HybridWeightsConfig blends vector and keyword scores. Must sum to 1.0.
type HybridWeightsConfig struct {
	Vector float64 `yaml:"vector"`
	Text   float64 `yaml:"text"`
}

// FieldWeightsConfig weighs per-field keyword coverage. Must sum to 1.0.
type FieldWeightsConfig struct {
	Title         float64 `yaml:"title"`
	Description   float64 `yaml:"description"`
	Summary       float64 `yaml:"summary"`
	KeyPoints     float64 `yaml:"key_points"`
	Tags          float64 `yaml:"tags"`
	SuggestedTags float64 `yaml:"suggested_tags"`
}

// SearchThresholdsConfig holds the per-mode minimum score cutoffs.
type SearchThresholdsConfig struct {
	Vector  float64 `yaml:"vector"`
	Keyword float64 `yaml:"keyword"`
	Hybrid  float64 `yaml:"hybrid"`
}

// SearchCacheConfig holds search result cache settings.
type SearchCacheConfig struct {
	TTLSec     int `yaml:"ttl_sec"`
	MaxEntries int `yaml:"max_entries"`
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	Weights      HybridWeightsConfig    `yaml:"weights"`
	FieldWeights FieldWeightsConfig     `yaml:"field_weights"`
	Thresholds   SearchThresholdsConfig `yaml:"thresholds"`
	Cache        SearchCacheConfig      `yaml:"cache"`
}

// SimilarityWeightsConfig blends the duplicate-detection signals. Must sum to 1.0.
type SimilarityWeightsConfig struct {
	Hash      float64 `yaml:"hash"`
	Text      float64 `yaml:"text"`
	Embedding float64 `yaml:"embedding"`
}

// SimilarityThresholdsConfig drives the duplicate-flagging policy.
type SimilarityThresholdsConfig struct {
	HashMatch      float64 `yaml:"hash_match"`
	Detection      float64 `yaml:"detection"`
	EmbeddingMatch float64 `yaml:"embedding_match"`
	HashInclude    float64 `yaml:"hash_include"`
}

// SimilarityConfig holds near-duplicate detection settings.
type SimilarityConfig struct {
	Weights      SimilarityWeightsConfig    `yaml:"weights"`
	Thresholds   SimilarityThresholdsConfig `yaml:"thresholds"`
	RetentionHrs int                        `yaml:"retention_hours"`
	SweepHrs     int                        `yaml:"sweep_interval_hours"`
	Workers      int                        `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 1024
	}

	zeroHybrid := HybridWeightsConfig{}
	if c.Search.Weights == zeroHybrid {
		c.Search.Weights = HybridWeightsConfig{Vector: 0.65, Text: 0.35}
	}
	zeroFields := FieldWeightsConfig{}
	if c.Search.FieldWeights == zeroFields {
		c.Search.FieldWeights = FieldWeightsConfig{
			Title:         0.30,
			Description:   0.20,
			Summary:       0.20,
			KeyPoints:     0.15,
			Tags:          0.10,
			SuggestedTags: 0.05,
		}
	}
	if c.Search.Thresholds.Vector <= 0 {
		c.Search.Thresholds.Vector = 0.5
	}
	if c.Search.Thresholds.Keyword <= 0 {
		c.Search.Thresholds.Keyword = 0.3
	}
	if c.Search.Thresholds.Hybrid <= 0 {
		c.Search.Thresholds.Hybrid = 0.35
	}
	if c.Search.Cache.TTLSec <= 0 {
		c.Search.Cache.TTLSec = 300
	}
	if c.Search.Cache.MaxEntries <= 0 {
		c.Search.Cache.MaxEntries = 500
	}

	zeroSim := SimilarityWeightsConfig{}
	if c.Similarity.Weights == zeroSim {
		c.Similarity.Weights = SimilarityWeightsConfig{Hash: 0.4, Text: 0.3, Embedding: 0.3}
	}
	if c.Similarity.Thresholds.HashMatch <= 0 {
		c.Similarity.Thresholds.HashMatch = 0.95
	}
	if c.Similarity.Thresholds.Detection <= 0 {
		c.Similarity.Thresholds.Detection = 0.85
	}
	if c.Similarity.Thresholds.EmbeddingMatch <= 0 {
		c.Similarity.Thresholds.EmbeddingMatch = 0.90
	}
	if c.Similarity.Thresholds.HashInclude <= 0 {
		c.Similarity.Thresholds.HashInclude = 0.30
	}
	if c.Similarity.RetentionHrs <= 0 {
		c.Similarity.RetentionHrs = 720 // 30 days
	}
	if c.Similarity.SweepHrs <= 0 {
		c.Similarity.SweepHrs = 24
	}
	if c.Similarity.Workers <= 0 {
		c.Similarity.Workers = 4
	}
}

// Validate checks the configuration for correctness. A weight group that does
// not sum to 1.0 is rejected here so the service never serves silently-wrong
// scores.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}

	if err := validateWeightSum("search.weights", c.Search.Weights.Vector+c.Search.Weights.Text); err != nil {
		return err
	}
	fw := c.Search.FieldWeights
	fieldSum := fw.Title + fw.Description + fw.Summary + fw.KeyPoints + fw.Tags + fw.SuggestedTags
	if err := validateWeightSum("search.field_weights", fieldSum); err != nil {
		return err
	}
	sw := c.Similarity.Weights
	if err := validateWeightSum("similarity.weights", sw.Hash+sw.Text+sw.Embedding); err != nil {
		return err
	}

	thresholds := map[string]float64{
		"search.thresholds.vector":              c.Search.Thresholds.Vector,
		"search.thresholds.keyword":             c.Search.Thresholds.Keyword,
		"search.thresholds.hybrid":              c.Search.Thresholds.Hybrid,
		"similarity.thresholds.hash_match":      c.Similarity.Thresholds.HashMatch,
		"similarity.thresholds.detection":       c.Similarity.Thresholds.Detection,
		"similarity.thresholds.embedding_match": c.Similarity.Thresholds.EmbeddingMatch,
		"similarity.thresholds.hash_include":    c.Similarity.Thresholds.HashInclude,
	}
	for name, v := range thresholds {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}

	return nil
}

func validateWeightSum(group string, sum float64) error {
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("%s must sum to 1.0, got %v", group, sum)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
