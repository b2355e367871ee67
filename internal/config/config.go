package config

import "os"

type Config struct {
	Port            string
	DBPath          string
	DefaultCurrency string
}

// Load reads the service configuration from the environment. Every knob has
// a working default so the service boots with no setup.
func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		DBPath:          getenv("DB_PATH", "settlement.db"),
		DefaultCurrency: getenv("DEFAULT_CURRENCY", "EUR"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
