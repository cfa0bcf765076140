package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime wiring options for building the app. Values come
// from defaults, an optional config file under Home, and PALAVER_*
// environment variables, in increasing precedence.
type Config struct {
	Home      string        // config directory, e.g. $HOME/.palaver
	RoomURL   string        // room server base URL, e.g. http://127.0.0.1:8080
	LogLevel  string        // zap level: debug, info, warn, error
	Heartbeat time.Duration // liveness heartbeat interval
	AckGrace  time.Duration // how long to wait for an ack before querying
	HTTP      *http.Client  // optional; defaults to the room client's own
}

// LoadConfig resolves the configuration for the given home directory.
func LoadConfig(home string) (Config, error) {
	v := viper.New()
	v.SetDefault("room_url", "http://127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("heartbeat", 30*time.Second)
	v.SetDefault("ack_grace", 10*time.Second)

	v.SetEnvPrefix("PALAVER")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home != "" {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	return Config{
		Home:      home,
		RoomURL:   v.GetString("room_url"),
		LogLevel:  v.GetString("log_level"),
		Heartbeat: v.GetDuration("heartbeat"),
		AckGrace:  v.GetDuration("ack_grace"),
	}, nil
}
