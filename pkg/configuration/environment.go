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
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/clientdesk/clientdesk/pkg/logging"
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

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type MongoOptions struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DB" envDefault:"clientdesk"`
}

type RedisOptions struct {
	Enabled     bool          `env:"REDIS_ENABLED" envDefault:"false"`
	URL         string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	ProgressTTL time.Duration `env:"REDIS_PROGRESS_TTL" envDefault:"24h"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type ImportOptions struct {
	// BatchSize is the default bulk-write chunk size. Callers may override
	// per request; the override is clamped to [MinBatchSize, MaxBatchSize].
	BatchSize    int `env:"IMPORT_BATCH_SIZE" envDefault:"2000"`
	MinBatchSize int `env:"IMPORT_MIN_BATCH_SIZE" envDefault:"500"`
	MaxBatchSize int `env:"IMPORT_MAX_BATCH_SIZE" envDefault:"5000"`

	// PaymentWorkers bounds the payment-attachment pool.
	PaymentWorkers int `env:"IMPORT_PAYMENT_WORKERS" envDefault:"16"`

	// MaxReportedIssues caps the per-row error/warning lists in responses.
	MaxReportedIssues int `env:"IMPORT_MAX_REPORTED_ISSUES" envDefault:"100"`
}

func (o *ImportOptions) Validate() error {
	if o.MinBatchSize <= 0 || o.MaxBatchSize < o.MinBatchSize {
		return fmt.Errorf("invalid import batch size window [%d, %d]", o.MinBatchSize, o.MaxBatchSize)
	}
	if o.BatchSize < o.MinBatchSize || o.BatchSize > o.MaxBatchSize {
		return fmt.Errorf("IMPORT_BATCH_SIZE=%d outside window [%d, %d]", o.BatchSize, o.MinBatchSize, o.MaxBatchSize)
	}
	if o.PaymentWorkers <= 0 {
		return fmt.Errorf("IMPORT_PAYMENT_WORKERS must be positive, got %d", o.PaymentWorkers)
	}
	if o.MaxReportedIssues <= 0 {
		return fmt.Errorf("IMPORT_MAX_REPORTED_ISSUES must be positive, got %d", o.MaxReportedIssues)
	}
	return nil
}

type Configuration struct {
	Mongo      MongoOptions
	Redis      RedisOptions
	Prometheus PrometheusOptions
	Import     ImportOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	RequestIDHeader  string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	UserEmailHeader  string `env:"USER_EMAIL_HEADER" envDefault:"X-User-Email"`

	// Long request timeouts: large synchronous imports run for minutes.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5m"`

	// ServiceAccountEmail owns records imported by CLI runs where no request
	// user is available.
	ServiceAccountEmail string `env:"SERVICE_ACCOUNT_EMAIL" envDefault:"system@clientdesk.local"`

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

func (c *Configuration) IsDevelopment() bool {
	return c.GoAppEnvironment != Production
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import configuration error: %w", err)
	}
	if err := c.validateEnvironment(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

func (c *Configuration) validateEnvironment() error {
	envName := strings.ToLower(strings.TrimSpace(c.GoAppEnvironment))
	if envName == "" {
		envName = "development"
	}
	switch envName {
	case "development", "staging", Production:
	default:
		return fmt.Errorf("invalid GO_APP_ENV=%q (expected development|staging|production)", c.GoAppEnvironment)
	}
	c.GoAppEnvironment = envName
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
