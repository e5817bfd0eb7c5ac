package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server       ServerConfig
	DB           DBConfig
	CORS         CORSConfig
	Log          LogConfig
	Venue        VenueConfig
	Calendar     CalendarConfig
	Availability AvailabilityConfig
	Booking      BookingConfig
	Payment      PaymentConfig
	Redis        RedisConfig
	MQ           MQConfig
	Outbox       OutboxConfig
	Tracing      TracingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"America/Denver"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-Availability-Degraded,Idempotent-Replayed"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"America/Denver"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"-25200"` // -7*60*60
}

// All slot conversion and conflict checks are anchored to TimeZone,
// never to the requester's locale.
type VenueConfig struct {
	Name         string `envconfig:"VENUE_NAME" default:"Merritt Fitness"`
	Location     string `envconfig:"VENUE_LOCATION" default:"2246 Irving St, Denver, CO 80211"`
	ContactEmail string `envconfig:"VENUE_CONTACT_EMAIL" default:"manager@merrittfitness.net"`
	TimeZone     string `envconfig:"VENUE_TIMEZONE" default:"America/Denver"`
}

type CalendarConfig struct {
	Driver         string        `envconfig:"CALENDAR_DRIVER" default:"google"` // google | memory
	CalendarID     string        `envconfig:"GOOGLE_CALENDAR_ID"`
	ClientEmail    string        `envconfig:"GOOGLE_CLIENT_EMAIL"`
	PrivateKey     string        `envconfig:"GOOGLE_PRIVATE_KEY"`
	RequestTimeout time.Duration `envconfig:"CALENDAR_REQUEST_TIMEOUT" default:"10s"`
	MaxResults     int64         `envconfig:"CALENDAR_MAX_RESULTS" default:"50"`
}

type AvailabilityConfig struct {
	// open: serve every slot as available when the calendar cannot be read.
	// closed: reject the query instead.
	Fallback string `envconfig:"AVAILABILITY_FALLBACK" default:"open"`
}

type BookingConfig struct {
	DefaultDurationHours float64       `envconfig:"BOOKING_DEFAULT_DURATION_HOURS" default:"2"`
	MaxDurationHours     float64       `envconfig:"BOOKING_MAX_DURATION_HOURS" default:"12"`
	HourlyRateCents      int64         `envconfig:"BOOKING_HOURLY_RATE_CENTS" default:"9500"`
	MinimumHours         float64       `envconfig:"BOOKING_MINIMUM_HOURS" default:"4"`
	CardFeePercent       float64       `envconfig:"BOOKING_CARD_FEE_PERCENT" default:"3"`
	Currency             string        `envconfig:"BOOKING_CURRENCY" default:"usd"`
	PendingTTL           time.Duration `envconfig:"BOOKING_PENDING_TTL" default:"48h"`
	ExpiryInterval       time.Duration `envconfig:"BOOKING_EXPIRY_INTERVAL" default:"1m"`
	RecheckBeforeWrite   bool          `envconfig:"BOOKING_RECHECK_BEFORE_WRITE" default:"true"`
	IdempotencyTTL       time.Duration `envconfig:"BOOKING_IDEMPOTENCY_TTL" default:"24h"`
}

type PaymentConfig struct {
	Provider  string `envconfig:"PAYMENT_PROVIDER" default:"disabled"` // omise | disabled
	PublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	SecretKey string `envconfig:"OMISE_SECRET_KEY"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"30s"`
}

type MQConfig struct {
	URL      string `envconfig:"MQ_URL"`
	Exchange string `envconfig:"MQ_EXCHANGE" default:"venue.bookings"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"20"`
	MaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
}

type TracingConfig struct {
	OTLPEndpoint string `envconfig:"TRACING_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"TRACING_SERVICE_NAME" default:"venue-booking"`
	Environment  string `envconfig:"TRACING_ENVIRONMENT" default:"dev"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c AvailabilityConfig) FailOpen() bool {
	return c.Fallback != "closed"
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Calendar.Driver {
	case "google":
		if c.Calendar.CalendarID == "" || c.Calendar.ClientEmail == "" || c.Calendar.PrivateKey == "" {
			return fmt.Errorf("missing Google Calendar credentials: GOOGLE_CALENDAR_ID, GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown CALENDAR_DRIVER %q", c.Calendar.Driver)
	}

	switch c.Availability.Fallback {
	case "open", "closed":
	default:
		return fmt.Errorf("unknown AVAILABILITY_FALLBACK %q", c.Availability.Fallback)
	}

	switch c.Payment.Provider {
	case "omise":
		if c.Payment.PublicKey == "" || c.Payment.SecretKey == "" {
			return fmt.Errorf("OMISE_PUBLIC_KEY and OMISE_SECRET_KEY are required for PAYMENT_PROVIDER=omise")
		}
	case "disabled":
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Payment.Provider)
	}

	if c.Booking.DefaultDurationHours <= 0 || c.Booking.DefaultDurationHours > c.Booking.MaxDurationHours {
		return fmt.Errorf("BOOKING_DEFAULT_DURATION_HOURS must be in (0, %v]", c.Booking.MaxDurationHours)
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "America/Denver",
			MaxConns: 5,
		},
		CORS: CORSConfig{
			AllowOrigins:  []string{"http://localhost:3000"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
			ExposeHeaders: []string{"Content-Length", "X-Availability-Degraded", "Idempotent-Replayed"},
			MaxAge:        12 * time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "America/Denver",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: -25200,
		},
		Venue: VenueConfig{
			Name:         "Test Venue",
			Location:     "1 Test St, Denver, CO",
			ContactEmail: "manager@example.com",
			TimeZone:     "America/Denver",
		},
		Calendar: CalendarConfig{
			Driver:         "memory",
			RequestTimeout: 2 * time.Second,
			MaxResults:     50,
		},
		Availability: AvailabilityConfig{
			Fallback: "open",
		},
		Booking: BookingConfig{
			DefaultDurationHours: 2,
			MaxDurationHours:     12,
			HourlyRateCents:      9500,
			MinimumHours:         4,
			CardFeePercent:       3,
			Currency:             "usd",
			PendingTTL:           48 * time.Hour,
			ExpiryInterval:       time.Minute,
			RecheckBeforeWrite:   true,
			IdempotencyTTL:       24 * time.Hour,
		},
		Payment: PaymentConfig{
			Provider: "disabled",
		},
		Redis: RedisConfig{
			LockTTL: 30 * time.Second,
		},
		MQ: MQConfig{
			Exchange: "venue.bookings.test",
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    10,
			MaxAttempts:  3,
		},
		Tracing: TracingConfig{
			ServiceName: "venue-booking-test",
			Environment: "test",
		},
	}
}
