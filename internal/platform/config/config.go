package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates every runtime setting the server needs.
type Config struct {
	Server   Server
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Welfare  WelfareConfig
	LLM      LLMConfig
	Tracing  TracingConfig
	Limits   RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminAPIToken   string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL           string
	MaxOpenConns  int
	MaxIdleConns  int
	ConnLifetime  time.Duration
	RunMigrations bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers        []string
	LifecycleTopic string
	ConsumerGroup  string
}

// WelfareConfig drives the catalog synchronizer. An empty ServiceKey disables
// synchronization.
type WelfareConfig struct {
	SyncEnabled    bool
	ServiceKey     string
	BaseURL        string
	CentralPath    string
	LocalPath      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetryCount  int
	RetryDelay     time.Duration
	BatchSize      int
	MaxPages       int
	RegionDelay    time.Duration
	StaleAfter     time.Duration
	MajorRegions   []string
	SyncOnStartup  bool
}

// TracingConfig selects the span exporter: "otlp", "stdout" or "none".
type TracingConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
}

// RateLimitConfig bounds authenticated API calls per user. Zero disables it.
type RateLimitConfig struct {
	PerUser int
	Window  time.Duration
}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxPromptBytes int
	CacheTTL       time.Duration
}

// Load reads configuration from the environment (optionally a .env file) and
// applies defaults so the server can boot without any settings.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Server: Server{
			Addr:            getString("SERVER_ADDR", ":8080"),
			JWTSigningKey:   getString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:       getString("JWT_ISSUER", "welfarehub"),
			JWTAudience:     getString("JWT_AUDIENCE", "welfarehub-api"),
			AdminAPIToken:   os.Getenv("ADMIN_API_TOKEN"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Log: LogConfig{
			Level:  getString("LOG_LEVEL", "info"),
			Format: getString("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getInt("DB_MAX_IDLE_CONNS", 10),
			ConnLifetime:  getDuration("DB_CONN_LIFETIME", time.Hour),
			RunMigrations: getBool("RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:        getList("KAFKA_BROKERS"),
			LifecycleTopic: getString("LIFECYCLE_TOPIC", "lifecycle.events"),
			ConsumerGroup:  getString("LIFECYCLE_CONSUMER_GROUP", "welfarehub-lifecycle"),
		},
		Welfare: WelfareConfig{
			SyncEnabled:    getBool("WELFARE_SYNC_ENABLED", true),
			ServiceKey:     os.Getenv("WELFARE_SERVICE_KEY"),
			BaseURL:        getString("WELFARE_BASE_URL", "https://apis.data.go.kr/B554287"),
			CentralPath:    getString("WELFARE_CENTRAL_PATH", "/NationalWelfareInformationsV001/NationalWelfarelistV001"),
			LocalPath:      getString("WELFARE_LOCAL_PATH", "/LocalGovernmentWelfareInformations/LcgvWelfarelist"),
			ConnectTimeout: getDuration("WELFARE_CONNECT_TIMEOUT", 10*time.Second),
			ReadTimeout:    getDuration("WELFARE_READ_TIMEOUT", 30*time.Second),
			MaxRetryCount:  getInt("WELFARE_MAX_RETRY_COUNT", 3),
			RetryDelay:     getDuration("WELFARE_RETRY_DELAY", time.Second),
			BatchSize:      getInt("WELFARE_BATCH_SIZE", 100),
			MaxPages:       getInt("WELFARE_MAX_PAGES", 100),
			RegionDelay:    getDuration("WELFARE_REGION_DELAY", time.Second),
			StaleAfter:     getDuration("WELFARE_STALE_AFTER", 30*24*time.Hour),
			MajorRegions:   getListDefault("WELFARE_MAJOR_REGIONS", []string{"서울특별시", "부산광역시", "대구광역시", "인천광역시", "광주광역시", "대전광역시", "울산광역시", "경기도"}),
			SyncOnStartup:  getBool("WELFARE_SYNC_ON_STARTUP", true),
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("LLM_API_KEY"),
			BaseURL:        os.Getenv("LLM_BASE_URL"),
			Model:          getString("LLM_MODEL", "gpt-4o-mini"),
			Timeout:        getDuration("LLM_TIMEOUT", 8*time.Second),
			MaxPromptBytes: getInt("LLM_MAX_PROMPT_BYTES", 8*1024),
			CacheTTL:       getDuration("CRITERIA_CACHE_TTL", 30*time.Minute),
		},
		Tracing: TracingConfig{
			Exporter:     getString("OTEL_TRACES_EXPORTER", "none"),
			OTLPEndpoint: getString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio:  getFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		Limits: RateLimitConfig{
			PerUser: getInt("RATE_LIMIT_PER_USER", 30),
			Window:  getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// SyncActive reports whether the synchronizer can run at all.
func (w WelfareConfig) SyncActive() bool {
	return w.SyncEnabled && w.ServiceKey != ""
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go duration strings or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string) []string {
	return getListDefault(key, nil)
}

func getListDefault(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for part := range strings.SplitSeq(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
