package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Bound on each individual store call made by the registry and ledger.
	StorageTimeout time.Duration

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// QR envelope keys. SigningKey is used as raw bytes for HMAC-SHA256;
	// CipherKeyHex must decode to the XChaCha20-Poly1305 key size.
	SigningKey   string
	CipherKeyHex string

	// Operator authentication.
	TokenKeyHex       string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// Dev convenience: a plain credential hashed at startup when no
	// precomputed hash is configured. Never set both.
	AdminPassword string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("GATEPASS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("GATEPASS_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("GATEPASS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("GATEPASS_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("GATEPASS_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("GATEPASS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("GATEPASS_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("GATEPASS_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("GATEPASS_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("GATEPASS_DB_MIN_CONNS", 0),

		StorageTimeout: EnvDuration("GATEPASS_STORAGE_TIMEOUT", 3*time.Second),

		ReadinessRequireDB: EnvBool("GATEPASS_READINESS_REQUIRE_DB", false),

		SigningKey:   EnvString("GATEPASS_SIGNING_KEY", ""),
		CipherKeyHex: EnvString("GATEPASS_CIPHER_KEY", ""),

		TokenKeyHex:       EnvString("GATEPASS_TOKEN_KEY", ""),
		TokenTTL:          EnvDuration("GATEPASS_TOKEN_TTL", 12*time.Hour),
		AdminUsername:     EnvString("GATEPASS_ADMIN_USERNAME", "admin"),
		AdminPasswordHash: EnvString("GATEPASS_ADMIN_PASSWORD_HASH", ""),
		AdminPassword:     EnvString("GATEPASS_ADMIN_PASSWORD", ""),
	}
}
