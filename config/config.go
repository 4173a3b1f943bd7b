// Package config loads service configuration from defaults, an optional yaml
// file and TOURNAMENT_-prefixed environment variables, in ascending priority.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	AMQP       AMQPConfig       `mapstructure:"amqp"`
	Noauth     NoauthConfig     `mapstructure:"noauth"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Debounce   DebounceConfig   `mapstructure:"debounce"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables rotated file output next to stdout when non-empty.
	File string `mapstructure:"file"`
}

type AMQPConfig struct {
	// URL switches lifecycle event publishing from the in-process bus to
	// AMQP when non-empty.
	URL string `mapstructure:"url"`
}

type NoauthConfig struct {
	// Secret signs the anonymous identity tokens echoed to clients.
	Secret string `mapstructure:"secret"`
}

type TournamentConfig struct {
	JoinGrace         time.Duration `mapstructure:"join_grace"`
	MatchDuration     time.Duration `mapstructure:"match_duration"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	EvictAfter        time.Duration `mapstructure:"evict_after"`
}

type DebounceConfig struct {
	Ingest DebounceProfile `mapstructure:"ingest"`
	Fanout DebounceProfile `mapstructure:"fanout"`
}

type DebounceProfile struct {
	Quiet    time.Duration `mapstructure:"quiet"`
	MaxStack int           `mapstructure:"max_stack"`
	MaxWait  time.Duration `mapstructure:"max_wait"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("amqp.url", "")
	v.SetDefault("noauth.secret", "dev-secret-change-me")

	v.SetDefault("tournament.join_grace", 15*time.Second)
	v.SetDefault("tournament.match_duration", 10*time.Minute)
	v.SetDefault("tournament.inactivity_timeout", 30*time.Second)
	v.SetDefault("tournament.evict_after", 10*time.Minute)

	v.SetDefault("debounce.ingest.quiet", 250*time.Millisecond)
	v.SetDefault("debounce.ingest.max_stack", 5)
	v.SetDefault("debounce.ingest.max_wait", 800*time.Millisecond)

	v.SetDefault("debounce.fanout.quiet", time.Second)
	v.SetDefault("debounce.fanout.max_stack", 20)
	v.SetDefault("debounce.fanout.max_wait", 3*time.Second)
}

// LoadConfig reads the configuration once and keeps watching the file for
// changes; reloads only refresh log-level style knobs, rooms in flight keep
// the profile they were built with.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TOURNAMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("configuration file changed", "file", e.Name)
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
