package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"busticket/internal/db"
	"busticket/internal/utils"
)

const (
	DefaultAppAddr           = ":8080"
	DefaultMySQLURL          = "root:@tcp(127.0.0.1:3306)/bus_ticket"
	DefaultPostgresURL       = "postgres://postgres@127.0.0.1:5432/bus_ticket?sslmode=disable"
	DefaultReferencePrefix   = "TKT"
	DefaultReferenceLength   = 6
	DefaultStoreTimeout      = 5 * time.Second
	DefaultTemporalTaskQueue = "booking-notifications"
	DefaultCurrency          = "IDR"
)

// Notification sinks accepted by NOTIFY_SINK (comma separated).
const (
	SinkLog      = "log"
	SinkStore    = "store"
	SinkTemporal = "temporal"
)

type Env struct {
	AppAddr              string
	GinMode              string
	DBDriver             string
	Dialect              db.Dialect
	DatabaseURL          string
	AutoMigrate          bool
	CORSAllowedOrigins   []string
	JWTSecret            string
	NotifySinks          []string
	TemporalHost         string
	TemporalNamespace    string
	TemporalTaskQueue    string
	ReferencePrefix      string
	ReferenceLength      int
	StoreTimeout         time.Duration
	EnforceOperatingDays bool
	Currency             string
	ConfigFile           string
}

// AuthEnabled reports whether bearer tokens are verified at all.
func (e Env) AuthEnabled() bool {
	return e.JWTSecret != ""
}

// HasSink reports whether name was selected in NOTIFY_SINK.
func (e Env) HasSink(name string) bool {
	for _, s := range e.NotifySinks {
		if s == name {
			return true
		}
	}
	return false
}

// fileConfig mirrors Env for the optional YAML file. Empty values keep the default.
type fileConfig struct {
	App struct {
		Addr    string `yaml:"addr"`
		GinMode string `yaml:"gin_mode"`
	} `yaml:"app"`
	Database struct {
		Driver      string `yaml:"driver"`
		URL         string `yaml:"url"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"database"`
	HTTP struct {
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		JWTSecret          string   `yaml:"jwt_secret"`
	} `yaml:"http"`
	Notify struct {
		Sinks             []string `yaml:"sinks"`
		TemporalHost      string   `yaml:"temporal_host"`
		TemporalNamespace string   `yaml:"temporal_namespace"`
		TemporalTaskQueue string   `yaml:"temporal_task_queue"`
	} `yaml:"notify"`
	Ledger struct {
		ReferencePrefix      string `yaml:"reference_prefix"`
		ReferenceLength      int    `yaml:"reference_length"`
		EnforceOperatingDays *bool  `yaml:"enforce_operating_days"`
		Currency             string `yaml:"currency"`
	} `yaml:"ledger"`
}

// Defaults returns the built-in configuration.
func Defaults() Env {
	return Env{
		AppAddr:           DefaultAppAddr,
		DBDriver:          "mysql",
		AutoMigrate:       true,
		NotifySinks:       []string{SinkLog},
		TemporalNamespace: "default",
		TemporalTaskQueue: DefaultTemporalTaskQueue,
		ReferencePrefix:   DefaultReferencePrefix,
		ReferenceLength:   DefaultReferenceLength,
		StoreTimeout:      DefaultStoreTimeout,
		Currency:          DefaultCurrency,
	}
}

// Load resolves configuration: defaults, then the YAML file named by --config
// or CONFIG_FILE, then environment variables, then --addr.
func Load(name string, args []string) (Env, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file (env: CONFIG_FILE)")
	addr := fs.String("addr", "", "listen address, overrides APP_ADDR")
	if err := fs.Parse(args); err != nil {
		return Env{}, err
	}

	env := Defaults()

	path := utils.FirstNonEmpty(*configPath, os.Getenv("CONFIG_FILE"))
	if path != "" {
		if err := env.applyFile(path); err != nil {
			return Env{}, err
		}
		env.ConfigFile = path
	}

	if err := env.applyEnv(); err != nil {
		return Env{}, err
	}
	if v := strings.TrimSpace(*addr); v != "" {
		env.AppAddr = v
	}

	dialect, err := db.ParseDialect(env.DBDriver)
	if err != nil {
		return Env{}, err
	}
	env.Dialect = dialect
	if env.DatabaseURL == "" {
		env.DatabaseURL = DefaultMySQLURL
		if dialect == db.Postgres {
			env.DatabaseURL = DefaultPostgresURL
		}
	}
	return env, env.validate()
}

func (e *Env) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&e.AppAddr, fc.App.Addr)
	setString(&e.GinMode, fc.App.GinMode)
	setString(&e.DBDriver, fc.Database.Driver)
	setString(&e.DatabaseURL, fc.Database.URL)
	if fc.Database.AutoMigrate != nil {
		e.AutoMigrate = *fc.Database.AutoMigrate
	}
	if fc.Database.Timeout != "" {
		d, err := time.ParseDuration(fc.Database.Timeout)
		if err != nil {
			return fmt.Errorf("config database.timeout: %w", err)
		}
		e.StoreTimeout = d
	}
	if len(fc.HTTP.CORSAllowedOrigins) > 0 {
		e.CORSAllowedOrigins = fc.HTTP.CORSAllowedOrigins
	}
	setString(&e.JWTSecret, fc.HTTP.JWTSecret)
	if len(fc.Notify.Sinks) > 0 {
		e.NotifySinks = fc.Notify.Sinks
	}
	setString(&e.TemporalHost, fc.Notify.TemporalHost)
	setString(&e.TemporalNamespace, fc.Notify.TemporalNamespace)
	setString(&e.TemporalTaskQueue, fc.Notify.TemporalTaskQueue)
	setString(&e.ReferencePrefix, fc.Ledger.ReferencePrefix)
	if fc.Ledger.ReferenceLength > 0 {
		e.ReferenceLength = fc.Ledger.ReferenceLength
	}
	if fc.Ledger.EnforceOperatingDays != nil {
		e.EnforceOperatingDays = *fc.Ledger.EnforceOperatingDays
	}
	setString(&e.Currency, fc.Ledger.Currency)
	return nil
}

func (e *Env) applyEnv() error {
	setString(&e.AppAddr, os.Getenv("APP_ADDR"))
	setString(&e.GinMode, os.Getenv("GIN_MODE"))
	setString(&e.DBDriver, os.Getenv("DB_DRIVER"))
	setString(&e.DatabaseURL, os.Getenv("DATABASE_URL"))
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); strings.TrimSpace(v) != "" {
		e.CORSAllowedOrigins = utils.SplitCSV(v)
	}
	setString(&e.JWTSecret, os.Getenv("JWT_SECRET"))
	if v := os.Getenv("NOTIFY_SINK"); strings.TrimSpace(v) != "" {
		e.NotifySinks = utils.SplitCSV(v)
	}
	setString(&e.TemporalHost, os.Getenv("TEMPORAL_HOST"))
	setString(&e.TemporalNamespace, os.Getenv("TEMPORAL_NAMESPACE"))
	setString(&e.TemporalTaskQueue, os.Getenv("TEMPORAL_TASK_QUEUE"))
	setString(&e.ReferencePrefix, os.Getenv("REFERENCE_PREFIX"))
	setString(&e.Currency, os.Getenv("CURRENCY"))

	if v := strings.TrimSpace(os.Getenv("REFERENCE_LENGTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REFERENCE_LENGTH: %w", err)
		}
		e.ReferenceLength = n
	}
	if v := strings.TrimSpace(os.Getenv("STORE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STORE_TIMEOUT: %w", err)
		}
		e.StoreTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("ENFORCE_OPERATING_DAYS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENFORCE_OPERATING_DAYS: %w", err)
		}
		e.EnforceOperatingDays = b
	}
	if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_MIGRATE: %w", err)
		}
		e.AutoMigrate = b
	}
	return nil
}

func (e Env) validate() error {
	var errs []error
	if e.ReferenceLength < 4 || e.ReferenceLength > 16 {
		errs = append(errs, fmt.Errorf("reference length must be between 4 and 16, got %d", e.ReferenceLength))
	}
	if strings.TrimSpace(e.ReferencePrefix) == "" {
		errs = append(errs, errors.New("reference prefix is required"))
	}
	if e.StoreTimeout < 0 {
		errs = append(errs, errors.New("store timeout must not be negative"))
	}
	for _, s := range e.NotifySinks {
		switch s {
		case SinkLog, SinkStore, SinkTemporal:
		default:
			errs = append(errs, fmt.Errorf("unknown notify sink %q", s))
		}
	}
	if e.HasSink(SinkTemporal) && e.TemporalHost == "" {
		errs = append(errs, errors.New("TEMPORAL_HOST is required for the temporal sink"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
