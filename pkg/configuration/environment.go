package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, falling
// back to the nearest directory containing go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := existing(envFiles, "")
	if len(existingFiles) == 0 {
		if root, ok := moduleRoot(); ok {
			existingFiles = existing(envFiles, root)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func existing(files []string, dir string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for dir := wd; ; {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"provider_portal"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Name, d.Password, d.MaxConns,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"provider-portal"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/metrics"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"100"`
	// Manual sync triggers allowed per minute across all clients.
	TriggerPerMinute int    `env:"RATE_LIMIT_SYNC_PER_MINUTE" envDefault:"6"`
	Storage          string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL         string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.TriggerPerMinute < 0 {
		return fmt.Errorf("rate limit TriggerPerMinute must be non-negative, got %d", r.TriggerPerMinute)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

// RegistryOptions point at the Provider Data API snapshot endpoint.
type RegistryOptions struct {
	BaseURL        string        `env:"PDA_BASE_URL"`
	APIKey         string        `env:"PDA_API_KEY"`
	ConnectTimeout time.Duration `env:"PDA_CONNECT_TIMEOUT" envDefault:"30s"`
	ReadTimeout    time.Duration `env:"PDA_READ_TIMEOUT" envDefault:"30s"`
	UseLocalFile   bool          `env:"PDA_USE_LOCAL_FILE" envDefault:"false"`
	LocalFilePath  string        `env:"PDA_LOCAL_FILE_PATH" envDefault:"pda-snapshot.json"`
}

func (r *RegistryOptions) Validate() error {
	if r.UseLocalFile {
		if strings.TrimSpace(r.LocalFilePath) == "" {
			return fmt.Errorf("PDA_LOCAL_FILE_PATH is required when PDA_USE_LOCAL_FILE=true")
		}
		return nil
	}
	if strings.TrimSpace(r.BaseURL) == "" {
		return nil
	}
	if !strings.HasPrefix(r.BaseURL, "http://") && !strings.HasPrefix(r.BaseURL, "https://") {
		return fmt.Errorf("invalid PDA_BASE_URL=%q (expected http(s) URL)", r.BaseURL)
	}
	return nil
}

// Configured reports whether a snapshot source can be built.
func (r *RegistryOptions) Configured() bool {
	return r.UseLocalFile || strings.TrimSpace(r.BaseURL) != ""
}

type SyncOptions struct {
	SchedulerEnabled   bool          `env:"SYNC_SCHEDULER_ENABLED" envDefault:"false"`
	Cron               string        `env:"SYNC_SCHEDULER_CRON" envDefault:"0 0 7 * * *"`
	RunOnStartup       bool          `env:"SYNC_RUN_ON_STARTUP" envDefault:"false"`
	ApplyDeactivations bool          `env:"SYNC_APPLY_DEACTIVATIONS" envDefault:"false"`
	LockRedisURL       string        `env:"SYNC_LOCK_REDIS_URL"`
	LockTTL            time.Duration `env:"SYNC_LOCK_TTL" envDefault:"30m"`
}

type LaneOptions struct {
	Name            string        `env:"LANE_NAME" envDefault:"pda-sync"`
	QueueCapacity   int           `env:"LANE_QUEUE_CAPACITY" envDefault:"2"`
	ShutdownTimeout time.Duration `env:"LANE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	Registry      RegistryOptions
	Sync          SyncOptions
	Lane          LaneOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	MigrateOnStart   bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:""`
	// Incoming header carrying the request id; a uuid is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production { // assume 'https' on production mode
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

// Load builds a configuration outside of the process-wide singleton.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return err
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	return nil
}

func (c *Configuration) Validate() error {
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry configuration error: %w", err)
	}
	if c.Sync.SchedulerEnabled && strings.TrimSpace(c.Sync.Cron) == "" {
		return fmt.Errorf("SYNC_SCHEDULER_CRON is required when SYNC_SCHEDULER_ENABLED=true")
	}
	if c.Sync.SchedulerEnabled && !c.Registry.Configured() {
		return fmt.Errorf("SYNC_SCHEDULER_ENABLED=true requires PDA_BASE_URL or PDA_USE_LOCAL_FILE")
	}
	if c.Lane.QueueCapacity < 1 {
		return fmt.Errorf("invalid LANE_QUEUE_CAPACITY=%d (must be >= 1)", c.Lane.QueueCapacity)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
