// Package config loads application configuration from environment
// variables.  Required variables halt startup when missing; optional
// ones fall back to sensible defaults.
package config

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field maps to
// one environment variable.
type Config struct {
    Env             string        // application environment (dev/test/prod)
    Port            string        // HTTP port to listen on
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    JWTSecret       string        // secret used to sign JWTs
    AccessTTLMin    int           // access token time-to-live in minutes
    RefreshTTLDays  int           // refresh token time-to-live in days
    BcryptCost      int           // bcrypt cost for password hashing
    StripeSecretKey string        // Stripe API secret key
    StripeWebhook   string        // Stripe webhook signing secret
    Currency        string        // default charge currency (ISO 4217)
    SweepInterval   time.Duration // how often abandoned holds are swept
    RabbitURL       string        // AMQP broker URL (optional)
}

// Load reads configuration from the environment.  Missing required
// variables cause a fatal log and exit.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"),
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:      mustInt("BCRYPT_COST"),
        StripeSecretKey: must("STRIPE_SECRET_KEY"),
        StripeWebhook:   must("STRIPE_WEBHOOK_SECRET"),
        Currency:        getenv("PAYMENT_CURRENCY", "usd"),
        SweepInterval:   envDur("HOLD_SWEEP_INTERVAL", time.Minute),
        RabbitURL:       os.Getenv("RABBITMQ_URL"),
    }
}

// must retrieves a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is must() with integer conversion.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
