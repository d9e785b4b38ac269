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

	"github.com/eventflow/eventflow/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist. When none exist in the working
// directory it walks up to the nearest go.mod and retries there.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
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
	Name     string `env:"DB_NAME" envDefault:"eventflow"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"eventflow"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type SessionOptions struct {
	Store     string        `env:"SESSION_STORE" envDefault:"memory"` // memory or redis
	RedisURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	CookieKey string        `env:"SID_COOKIE_KEY" envDefault:"sid"`
	Duration  time.Duration `env:"SESSION_DURATION" envDefault:"720h"`
}

func (s *SessionOptions) Validate() error {
	if s.Store != "memory" && s.Store != "redis" {
		return fmt.Errorf("session store must be 'memory' or 'redis', got '%s'", s.Store)
	}
	if s.Store == "redis" && s.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when SESSION_STORE is 'redis'")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", s.Duration)
	}
	return nil
}

type OpaqueIDOptions struct {
	Alphabet  string `env:"OPAQUE_ID_ALPHABET" envDefault:"k3G7QAe51FCsPW92uEOyq4Bg6Sp8YzVTmnU0liwDdHXLajZrfxNhobJIRcMvKt"`
	MinLength uint8  `env:"OPAQUE_ID_MIN_LENGTH" envDefault:"10"`
}

type InviteOptions struct {
	ResendInterval time.Duration `env:"INVITE_RESEND_INTERVAL" envDefault:"60s"`
}

type UploadOptions struct {
	Path      string `env:"UPLOADS_PATH" envDefault:"storage/public"`
	URLPrefix string `env:"UPLOADS_URL" envDefault:"/storage"`
	MaxSize   int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
}

type AuthzOptions struct {
	Mode string `env:"AUTHZ_MODE" envDefault:"enforce"` // disabled, shadow or enforce
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	Session       SessionOptions
	OpaqueID      OpaqueIDOptions
	Invites       InviteOptions
	Uploads       UploadOptions
	Authz         AuthzOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	TermsURL         string `env:"TERMS_URL"`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	// Incoming header carrying the request id; a uuid is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	// RLS enforcement mode (disabled/enforce).
	RLSEnforce string `env:"RLS_ENFORCE" envDefault:"disabled"`

	logger *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
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
	return c.finalize()
}

func (c *Configuration) finalize() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session configuration error: %w", err)
	}
	if err := c.validateRLS(); err != nil {
		return err
	}
	if len(c.OpaqueID.Alphabet) < 3 {
		return fmt.Errorf("OPAQUE_ID_ALPHABET must have at least 3 characters")
	}

	c.logger = logging.New(os.Stdout, logging.ParseLevel(c.LogLevel), c.GoAppEnvironment == Production)
	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	if c.Origin == "" {
		if c.GoAppEnvironment == Production {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		} else {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		}
	}
	return nil
}

func (c *Configuration) validateRLS() error {
	mode := strings.ToLower(strings.TrimSpace(c.RLSEnforce))
	if mode == "" {
		mode = "disabled"
	}
	switch mode {
	case "disabled", "enforce":
	default:
		return fmt.Errorf("invalid RLS_ENFORCE=%q (expected disabled|enforce)", c.RLSEnforce)
	}

	if mode == "enforce" && strings.EqualFold(strings.TrimSpace(c.Database.User), "postgres") {
		return fmt.Errorf("RLS_ENFORCE=enforce requires a non-superuser DB_USER (postgres will bypass RLS)")
	}

	c.RLSEnforce = mode
	return nil
}
