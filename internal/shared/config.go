package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string // empty disables the search log
	RedisAddr   string // empty disables the reviews cache
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	RentalBase     string
	RentalToken    string
	RentalRPS      int
	RentalInFlight int
	RentalAttempts int
	RentalTimeout  time.Duration

	SessionIdle  time.Duration
	RatingsWait  time.Duration
	SavedWorkers int
}

// Load reads the environment, after applying a .env file when one exists.
func Load(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    secs("CACHE_TTL_SECONDS", 60),

		RentalBase:     env("RENTAL_API_BASE_URL", "http://localhost:3000"),
		RentalToken:    env("RENTAL_API_TOKEN", ""),
		RentalRPS:      atoi("RENTAL_API_RPS", 10),
		RentalInFlight: atoi("RENTAL_API_MAX_IN_FLIGHT", 8),
		RentalAttempts: atoi("RENTAL_API_ATTEMPTS", 1),
		RentalTimeout:  secs("RENTAL_API_TIMEOUT_SECONDS", 20),

		SessionIdle:  secs("SESSION_IDLE_SECONDS", 1800),
		RatingsWait:  secs("RATINGS_WAIT_SECONDS", 10),
		SavedWorkers: atoi("SAVED_SEARCH_WORKERS", 4),
	}
	if c.RentalToken == "" {
		log.Debug().Msg("RENTAL_API_TOKEN is empty")
	}
	return c
}

// RequestTimeout bounds one BFF request: a search may use the whole rental
// timeout and then wait for ratings.
func (c Config) RequestTimeout() time.Duration {
	return c.RentalTimeout + c.RatingsWait + 5*time.Second
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
