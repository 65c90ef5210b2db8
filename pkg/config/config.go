package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Map         MapConfig
	Catalog     CatalogConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	Places      PlacesConfig
	StaticMaps  StaticMapsConfig
	WhatsApp    WhatsAppConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// MapConfig holds the defaults the location feature works against: the
// fallback coordinate used when a caller has no position, search radii, and
// the national emergency number returned by the emergency endpoint.
type MapConfig struct {
	DefaultLatitude   float64
	DefaultLongitude  float64
	DefaultCity       string
	EmergencyNumber   string
	HospitalRadiusKm  float64
	PharmacyRadiusKm  float64
	LocateTimeoutSecs int
}

// CatalogConfig holds facility catalog configuration
type CatalogConfig struct {
	Source string // "builtin" or "file"
	File   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// GeolocationConfig holds geocoder provider configuration
type GeolocationConfig struct {
	Provider string
	APIKey   string
}

// PlacesConfig holds the external places API configuration
type PlacesConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// StaticMapsConfig holds the static map image provider configuration
type StaticMapsConfig struct {
	URL    string
	APIKey string
}

// WhatsAppConfig holds WhatsApp Cloud API configuration
type WhatsAppConfig struct {
	APIURL        string
	AccessToken   string
	PhoneNumberID string
	Enabled       bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Map: MapConfig{
			DefaultLatitude:   getEnvAsFloat("DEFAULT_LAT", 23.0225),
			DefaultLongitude:  getEnvAsFloat("DEFAULT_LNG", 72.5714),
			DefaultCity:       getEnv("DEFAULT_CITY", "Ahmedabad"),
			EmergencyNumber:   getEnv("EMERGENCY_NUMBER", "108"),
			HospitalRadiusKm:  getEnvAsFloat("HOSPITAL_RADIUS_KM", 20),
			PharmacyRadiusKm:  getEnvAsFloat("PHARMACY_RADIUS_KM", 10),
			LocateTimeoutSecs: getEnvAsInt("LOCATE_TIMEOUT_SECONDS", 5),
		},
		Catalog: CatalogConfig{
			Source: getEnv("CATALOG_SOURCE", "builtin"),
			File:   getEnv("CATALOG_FILE", "data/locations.json"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Geolocation: GeolocationConfig{
			Provider: getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:   getEnv("GEOLOCATION_API_KEY", ""),
		},
		Places: PlacesConfig{
			URL:     getEnv("PLACES_API_URL", ""),
			APIKey:  getEnv("PLACES_API_KEY", ""),
			Enabled: getEnvAsBool("FEATURE_PLACES", false),
		},
		StaticMaps: StaticMapsConfig{
			URL:    getEnv("STATIC_MAPS_URL", "https://maps.googleapis.com/maps/api/staticmap"),
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		WhatsApp: WhatsAppConfig{
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v18.0"),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			Enabled:       getEnvAsBool("FEATURE_SHARE", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "healthnav"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
