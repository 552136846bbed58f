package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

// EnvPrefix prefixes every environment override, e.g. CREWNET_CORPUS_REPO.
const EnvPrefix = "CREWNET"

// Config holds all application configuration.
type Config struct {
	Corpus     CorpusConfig     `mapstructure:"corpus"`
	Filters    FilterConfig     `mapstructure:"filters"`
	Graph      GraphConfig      `mapstructure:"graph"`
	Metadata   MetadataConfig   `mapstructure:"metadata"`
	Output     OutputConfig     `mapstructure:"output"`
	GraphStore GraphStoreConfig `mapstructure:"graph_store"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type CorpusConfig struct {
	Repo        string `mapstructure:"repo"`
	Parallelism int    `mapstructure:"parallelism"`
	MaxMovies   int    `mapstructure:"max_movies"`
}

// FilterConfig holds the exclusion policy. ExcludeMovieTypes may list the
// pseudo types "feature_films" and "non_feature_films".
type FilterConfig struct {
	ExcludeMovieTypes []string `mapstructure:"exclude_movie_types"`
	ExcludeRoles      []string `mapstructure:"exclude_roles"`
	FeaturesOnly      bool     `mapstructure:"features_only"`
	NonFeaturesOnly   bool     `mapstructure:"non_features_only"`
}

type GraphConfig struct {
	SelfLoops bool `mapstructure:"self_loops"`
}

type MetadataConfig struct {
	DirectorsFile string `mapstructure:"directors_file"`
}

type OutputConfig struct {
	GEXF string `mapstructure:"gexf"`
	JSON string `mapstructure:"json"`
	DOT  string `mapstructure:"dot"`
}

type GraphStoreConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// HealthAddr is where the worker serves its health probes.
	HealthAddr string `mapstructure:"health_addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.repo", "")
	v.SetDefault("corpus.parallelism", 8)
	v.SetDefault("corpus.max_movies", 0)
	v.SetDefault("filters.exclude_movie_types", []string{})
	v.SetDefault("filters.exclude_roles", []string{})
	v.SetDefault("filters.features_only", false)
	v.SetDefault("filters.non_features_only", false)
	v.SetDefault("graph.self_loops", false)
	v.SetDefault("metadata.directors_file", "")
	v.SetDefault("output.gexf", "")
	v.SetDefault("output.json", "")
	v.SetDefault("output.dot", "")
	v.SetDefault("graph_store.uri", "")
	v.SetDefault("graph_store.username", "neo4j")
	v.SetDefault("graph_store.password", "")
	v.SetDefault("graph_store.database", "")
	v.SetDefault("vector.host", "")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.collection", "directors")
	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "crewnet")
	v.SetDefault("temporal.health_addr", ":8081")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.environment", "development")
}

// Policy converts the filters into an exclusion policy. Conflicting feature
// filters yield crewindex.ErrConfigConflict.
func (c *Config) Policy() (crewindex.Policy, error) {
	return crewindex.NewPolicy(crewindex.PolicyParams{
		ExcludeMovieTypes: c.Filters.ExcludeMovieTypes,
		ExcludeRoles:      c.Filters.ExcludeRoles,
		FeaturesOnly:      c.Filters.FeaturesOnly,
		NonFeaturesOnly:   c.Filters.NonFeaturesOnly,
	})
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Corpus.Parallelism < 0 {
		warnings = append(warnings, fmt.Sprintf("corpus parallelism %d is negative, using the default", c.Corpus.Parallelism))
	}
	if c.Corpus.MaxMovies < 0 {
		warnings = append(warnings, fmt.Sprintf("corpus max_movies %d is negative, no cap applied", c.Corpus.MaxMovies))
	}

	if c.GraphStore.URI != "" && c.GraphStore.Password == "" {
		warnings = append(warnings, fmt.Sprintf("graph store '%s' is configured but password is empty", c.GraphStore.URI))
	}

	if c.Vector.Host != "" && (c.Vector.Port <= 0 || c.Vector.Port > 65535) {
		warnings = append(warnings, fmt.Sprintf("vector port %d is out of range", c.Vector.Port))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "logfmt":
	default:
		warnings = append(warnings, fmt.Sprintf("log format '%s' is unknown, using text", c.Log.Format))
	}

	return warnings
}

// Load reads configuration from a .env file, the config file at path and the
// environment, in increasing precedence. An empty path looks for
// crewnet.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("crewnet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return &cfg, nil
}
