package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Signal    SignalConfig    `mapstructure:"signal"`
	Groups    GroupsConfig    `mapstructure:"groups"`
	Client    ClientConfig    `mapstructure:"client"`
	Recording RecordingConfig `mapstructure:"recording"`
}

type SignalConfig struct {
	SendQueue  int     `mapstructure:"send_queue"`
	OfferRate  float64 `mapstructure:"offer_rate"`
	OfferBurst int     `mapstructure:"offer_burst"`
}

type GroupsConfig struct {
	// Store is "memory" or "redis".
	Store     string `mapstructure:"store"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisKey  string `mapstructure:"redis_key"`
}

type ClientConfig struct {
	ServerURL     string        `mapstructure:"server_url"`
	ICEServers    []string      `mapstructure:"ice_servers"`
	RingTimeout   time.Duration `mapstructure:"ring_timeout"`
	RefreshPeriod time.Duration `mapstructure:"refresh_period"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

type RecordingConfig struct {
	Container string `mapstructure:"container"`
	MaxBytes  int    `mapstructure:"max_bytes"`
	Dir       string `mapstructure:"dir"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// HUDDLE_GROUPS_REDIS_ADDR overrides groups.redis_addr and so on.
	v.SetEnvPrefix("huddle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("group_store", cfg.Groups.Store).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")

	v.SetDefault("signal.send_queue", 32)
	v.SetDefault("signal.offer_rate", 1.0)
	v.SetDefault("signal.offer_burst", 5)

	v.SetDefault("groups.store", "memory")
	v.SetDefault("groups.redis_addr", "localhost:6379")
	v.SetDefault("groups.redis_key", "huddle:groups")

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("client.ring_timeout", "30s")
	v.SetDefault("client.refresh_period", "30s")
	v.SetDefault("client.frame_interval", "33ms")

	v.SetDefault("recording.container", "webm")
	v.SetDefault("recording.max_bytes", 256<<20)
	v.SetDefault("recording.dir", ".")
}
