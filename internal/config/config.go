package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Redis   RedisConfig
	SQLite  SQLiteConfig
	ZAI     ZAIConfig
	Content ContentConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig selects the job store driver: memory, redis or sqlite.
type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type ZAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type ContentConfig struct {
	PostsPerTopic       int
	DefaultTimeRange    string
	MaxHashtags         int
	MaxCaptionLength    int
	MaxExcerptLength    int
	OptimalPostingHours []int
	ImageSize           string
	ImageQuality        string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("ZAI_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults
	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("sqlite.path", "postpilot.db")
	viper.SetDefault("zai.base_url", "https://api.z.ai/api/paas/v4")
	viper.SetDefault("zai.text_model", "glm-4.6")
	viper.SetDefault("zai.image_model", "cogview-4")
	viper.SetDefault("content.posts_per_topic", 3)
	viper.SetDefault("content.default_time_range", "oneDay")
	viper.SetDefault("content.max_hashtags", 5)
	viper.SetDefault("content.max_caption_length", 2200)
	viper.SetDefault("content.max_excerpt_length", 2000)
	viper.SetDefault("content.optimal_posting_hours", []int{8, 12, 15, 18, 20})
	viper.SetDefault("content.image_size", "1024x1024")
	viper.SetDefault("content.image_quality", "hd")

	// Bind ZAI_API_KEY explicitly so the env var is seen without a prefix
	_ = viper.BindEnv("zai.api_key", "ZAI_API_KEY")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("store.driver"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("sqlite.path"),
		},
		ZAI: ZAIConfig{
			APIKey:     viper.GetString("zai.api_key"),
			BaseURL:    viper.GetString("zai.base_url"),
			TextModel:  viper.GetString("zai.text_model"),
			ImageModel: viper.GetString("zai.image_model"),
		},
		Content: ContentConfig{
			PostsPerTopic:       viper.GetInt("content.posts_per_topic"),
			DefaultTimeRange:    viper.GetString("content.default_time_range"),
			MaxHashtags:         viper.GetInt("content.max_hashtags"),
			MaxCaptionLength:    viper.GetInt("content.max_caption_length"),
			MaxExcerptLength:    viper.GetInt("content.max_excerpt_length"),
			OptimalPostingHours: viper.GetIntSlice("content.optimal_posting_hours"),
			ImageSize:           viper.GetString("content.image_size"),
			ImageQuality:        viper.GetString("content.image_quality"),
		},
	}

	return cfg, nil
}

// DefaultTopics are the suggested content topics served by /api/topics.
var DefaultTopics = []string{
	"teknologi",
	"bisnis",
	"kesehatan",
	"olahraga",
	"hiburan",
	"politik",
	"sains",
	"travel",
	"kuliner",
	"fashion",
}

// NewsDomains are the Indonesian news sources suggested for URL jobs.
var NewsDomains = []string{
	"detik.com",
	"kompas.com",
	"tempo.co",
	"cnnindonesia.com",
	"liputan6.com",
	"tribunnews.com",
	"sindonews.com",
	"viva.co.id",
	"merdeka.com",
	"okezone.com",
	"suara.com",
	"antaranews.com",
	"republika.co.id",
	"mediaindonesia.com",
	"jawapos.com",
}
