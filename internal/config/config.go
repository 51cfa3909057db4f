package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the dispatch service.
// It covers the environment, monitoring server port, database connection,
// notification channel credentials, dispatch tuning and the optional
// geocoder, AMQP and Redis integrations.
type Config struct {
	Env      string         // Env is the current environment: local, development, production.
	Port     int            // Port is the monitoring server port.
	Database PostgresConfig // Database holds the postgres database configuration.
	Push     PushConfig     // Push holds the push gateway configuration.
	Email    EmailConfig    // Email holds the transactional email API configuration.
	Dispatch DispatchConfig // Dispatch holds matching defaults and fallback coordinates.
	Geocoder GeocoderConfig // Geocoder selects the optional free-text geocoding backend.
	AMQP     AMQPConfig     // AMQP enables the broker consumer when a URL is set.
	Redis    RedisConfig    // Redis enables candidate caching when an address is set.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// PushConfig holds the push notification gateway settings.
type PushConfig struct {
	GatewayURL string // GatewayURL is the push gateway send endpoint.
	GatewayKey string // GatewayKey is the push gateway access token.
	RateLimit  int    // RateLimit is the maximum push sends per second.
}

// EmailConfig holds the transactional email API settings.
type EmailConfig struct {
	URL    string // URL is the email API send endpoint.
	Key    string // Key is the email API key.
	Sender string // Sender is the display name on outgoing email.
}

// DispatchConfig holds matching defaults. Fallbacks maps lowercase city
// keywords to coordinates used when a provider location is free text;
// Default is the last-resort coordinate when no keyword matches.
type DispatchConfig struct {
	DefaultRadiusKm float64
	Default         models.Coordinates
	Fallbacks       map[string]models.Coordinates
}

// GeocoderConfig selects the free-text geocoding backend: none, google or nominatim.
type GeocoderConfig struct {
	Kind      string // Kind of geocoder backend.
	APIKey    string // APIKey for the Google backend.
	RateLimit int    // RateLimit in requests per second for the Google client.
}

// AMQPConfig holds the optional broker consumer settings.
type AMQPConfig struct {
	URL   string // URL is the AMQP connection string; empty disables the consumer.
	Queue string // Queue is the queue carrying insert events.
}

// Enabled reports whether the AMQP consumer should run.
func (a AMQPConfig) Enabled() bool { return a.URL != "" }

// RedisConfig holds the optional candidate cache settings.
type RedisConfig struct {
	Addr string        // Addr is the Redis server address; empty disables caching.
	TTL  time.Duration // TTL is how long a candidate list stays fresh.
}

// Enabled reports whether the candidate cache should be used.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// MustLoad loads the configuration from the environment, reading a local
// .env file first when one exists. It panics on malformed values since the
// service cannot start without a usable configuration.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.SetEnvPrefix("DISPATCH")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	vpr.SetDefault("env", "production")
	vpr.SetDefault("health.port", "8080")
	vpr.SetDefault("db.port", "5432")
	vpr.SetDefault("push.rate_limit", "25")
	vpr.SetDefault("email.sender", "RoadCall")
	vpr.SetDefault("radius.km", "50")
	vpr.SetDefault("default.lat", "31.5204")
	vpr.SetDefault("default.lng", "74.3587")
	vpr.SetDefault("geocoder.kind", "none")
	vpr.SetDefault("geocoder.rate_limit", "10")
	vpr.SetDefault("amqp.queue", "service-requests")
	vpr.SetDefault("redis.ttl", "30s")

	healthPort, err := strconv.Atoi(vpr.GetString("health.port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	pushRate, err := strconv.Atoi(vpr.GetString("push.rate_limit"))
	if err != nil {
		panic("failed to parse push rate limit from configuration, must be an integer")
	}

	geocoderRate, err := strconv.Atoi(vpr.GetString("geocoder.rate_limit"))
	if err != nil {
		panic("failed to parse geocoder rate limit from configuration, must be an integer")
	}

	radius, err := strconv.ParseFloat(vpr.GetString("radius.km"), 64)
	if err != nil {
		panic("failed to parse default radius from configuration")
	}

	redisTTL, err := time.ParseDuration(vpr.GetString("redis.ttl"))
	if err != nil {
		panic("failed to parse redis TTL from configuration")
	}

	return &Config{
		Env:  vpr.GetString("env"),
		Port: healthPort,
		Database: PostgresConfig{
			Host:     vpr.GetString("db.host"),
			Port:     vpr.GetString("db.port"),
			User:     vpr.GetString("db.user"),
			Password: vpr.GetString("db.password"),
			Name:     vpr.GetString("db.name"),
		},
		Push: PushConfig{
			GatewayURL: vpr.GetString("push.gateway_url"),
			GatewayKey: vpr.GetString("push.gateway_key"),
			RateLimit:  pushRate,
		},
		Email: EmailConfig{
			URL:    vpr.GetString("email.url"),
			Key:    vpr.GetString("email.key"),
			Sender: vpr.GetString("email.sender"),
		},
		Dispatch: DispatchConfig{
			DefaultRadiusKm: radius,
			Default:         parseDefaultCoordinate(vpr),
			Fallbacks:       parseFallbackCities(vpr.GetString("fallback.cities")),
		},
		Geocoder: GeocoderConfig{
			Kind:      vpr.GetString("geocoder.kind"),
			APIKey:    vpr.GetString("geocoder.key"),
			RateLimit: geocoderRate,
		},
		AMQP: AMQPConfig{
			URL:   vpr.GetString("amqp.url"),
			Queue: vpr.GetString("amqp.queue"),
		},
		Redis: RedisConfig{
			Addr: vpr.GetString("redis.addr"),
			TTL:  redisTTL,
		},
	}
}

func parseDefaultCoordinate(vpr *viper.Viper) models.Coordinates {
	lat, err := strconv.ParseFloat(vpr.GetString("default.lat"), 64)
	if err != nil {
		panic("failed to parse default latitude from configuration")
	}

	lng, err := strconv.ParseFloat(vpr.GetString("default.lng"), 64)
	if err != nil {
		panic("failed to parse default longitude from configuration")
	}

	return models.Coordinates{Latitude: lat, Longitude: lng}
}

// parseFallbackCities decodes the keyword table from a JSON object such as
// {"multan": {"latitude": 30.1575, "longitude": 71.5249}}. An empty value
// returns nil, which callers treat as "use the built-in table".
func parseFallbackCities(raw string) map[string]models.Coordinates {
	if raw == "" {
		return nil
	}

	var cities map[string]models.Coordinates
	if err := json.Unmarshal([]byte(raw), &cities); err != nil {
		panic("failed to parse fallback cities from configuration")
	}

	return cities
}
