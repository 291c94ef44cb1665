package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Weather     WeatherConfig     `mapstructure:"weather"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Display     DisplayConfig     `mapstructure:"display"`
	Refresh     RefreshConfig     `mapstructure:"refresh"`
	API         APIConfig         `mapstructure:"api"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Database    DatabaseConfig    `mapstructure:"database"`
}

type WeatherConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	FallbackCity string        `mapstructure:"fallback_city"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type GeolocationConfig struct {
	Provider  string        `mapstructure:"provider"`
	URL       string        `mapstructure:"url"`
	Latitude  float64       `mapstructure:"latitude"`
	Longitude float64       `mapstructure:"longitude"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DisplayConfig struct {
	Unit string `mapstructure:"unit"`
}

type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configPath, or config.yaml from the working directory or
// /etc/weatherly. Every key can be overridden with WEATHERLY_<SECTION>_<KEY>;
// WEATHER_API_URL also sets the backend address.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weatherly")
	}

	v.SetEnvPrefix("weatherly")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("weather.api_url", "WEATHERLY_WEATHER_API_URL", "WEATHER_API_URL")

	// Set defaults
	v.SetDefault("weather.api_url", "http://127.0.0.1:8000/api/weather/")
	v.SetDefault("weather.fallback_city", "Kathmandu")
	v.SetDefault("weather.timeout", "10s")
	v.SetDefault("geolocation.provider", "ip")
	v.SetDefault("geolocation.url", "http://ip-api.com/json/")
	v.SetDefault("geolocation.latitude", 0)
	v.SetDefault("geolocation.longitude", 0)
	v.SetDefault("geolocation.timeout", "5s")
	v.SetDefault("display.unit", "C")
	v.SetDefault("refresh.interval", "0s")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.enabled", true)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "weatherly")
	v.SetDefault("mqtt.client_id", "weatherly")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "./weatherly.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
