package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TAXPARSER"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Ingest   IngestConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// OCRConfig holds rasterizer and recognizer configuration
type OCRConfig struct {
	Engine      string // tesseract | gosseract
	Pdftoppm    string
	Tesseract   string
	Lang        string
	DPI         int
	PSM         int
	TessdataDir string
}

// StorageConfig controls where uploads, page images and annotation records live.
type StorageConfig struct {
	WorkDir string
}

type QueueConfig struct {
	Workers int
	Size    int
	Timeout time.Duration
}

type IngestConfig struct {
	Dirs     []string
	Debounce time.Duration
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             "file:taxparser.db?_pragma=foreign_keys(1)",
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{GRPCAddr: ":8080"},
		OCR: OCRConfig{
			Engine:    "tesseract",
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
			Lang:      "eng",
			DPI:       200,
		},
		Storage: StorageConfig{WorkDir: "./media/tax_forms"},
		Queue:   QueueConfig{Workers: 4, Size: 256, Timeout: 5 * time.Minute},
		Ingest:  IngestConfig{Debounce: 750 * time.Millisecond},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig registers the shared flags on fs (a fresh set when nil), parses args,
// and resolves every key from flags, TAXPARSER_* env vars, an optional config file
// and the defaults, in that order.
func LoadConfig(fs *pflag.FlagSet, args []string) (*Config, error) {
	if fs == nil {
		fs = pflag.NewFlagSet("taxparser", pflag.ContinueOnError)
	}
	def := DefaultConfig()
	v := viper.New()
	setupViperEnvironment(v, def)
	defineFlags(fs, def)

	if err := fs.Parse(args); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse flags", err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "bind flags", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %q", path), err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViperEnvironment(v *viper.Viper, def *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "")
	v.SetDefault("db.dsn", def.Database.DSN)
	v.SetDefault("db.max_conns", def.Database.MaxConns)
	v.SetDefault("db.min_conns", def.Database.MinConns)
	v.SetDefault("db.max_conn_lifetime", def.Database.MaxConnLifetime)
	v.SetDefault("db.max_conn_idle_time", def.Database.MaxConnIdleTime)
	v.SetDefault("db.dial_timeout", def.Database.DialTimeout)
	v.SetDefault("db.statement_timeout", def.Database.StatementTimeout)
	v.SetDefault("grpc.addr", def.Server.GRPCAddr)
	v.SetDefault("ocr.engine", def.OCR.Engine)
	v.SetDefault("ocr.pdftoppm", def.OCR.Pdftoppm)
	v.SetDefault("ocr.tesseract", def.OCR.Tesseract)
	v.SetDefault("ocr.lang", def.OCR.Lang)
	v.SetDefault("ocr.dpi", def.OCR.DPI)
	v.SetDefault("ocr.psm", def.OCR.PSM)
	v.SetDefault("ocr.tessdata_dir", def.OCR.TessdataDir)
	v.SetDefault("storage.work_dir", def.Storage.WorkDir)
	v.SetDefault("queue.workers", def.Queue.Workers)
	v.SetDefault("queue.size", def.Queue.Size)
	v.SetDefault("queue.timeout", def.Queue.Timeout)
	v.SetDefault("ingest.dirs", def.Ingest.Dirs)
	v.SetDefault("ingest.debounce", def.Ingest.Debounce)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}

// flag name -> viper key
var flagKeys = map[string]string{
	"config":       "config",
	"db":           "db.dsn",
	"grpc-addr":    "grpc.addr",
	"work-dir":     "storage.work_dir",
	"dpi":          "ocr.dpi",
	"ocr-engine":   "ocr.engine",
	"lang":         "ocr.lang",
	"tessdata-dir": "ocr.tessdata_dir",
	"workers":      "queue.workers",
	"watch":        "ingest.dirs",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

func defineFlags(fs *pflag.FlagSet, def *Config) {
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("db", def.Database.DSN, "Database DSN (postgres://... or file:... for SQLite)")
	fs.String("grpc-addr", def.Server.GRPCAddr, "gRPC listen address")
	fs.String("work-dir", def.Storage.WorkDir, "Directory for uploads, page images and annotation records")
	fs.Int("dpi", def.OCR.DPI, "Rasterization DPI")
	fs.String("ocr-engine", def.OCR.Engine, "Recognizer: tesseract (CLI) or gosseract (needs -tags gosseract)")
	fs.String("lang", def.OCR.Lang, "Tesseract language")
	fs.String("tessdata-dir", def.OCR.TessdataDir, "Tesseract tessdata directory")
	fs.Int("workers", def.Queue.Workers, "Number of parse workers")
	fs.StringSlice("watch", def.Ingest.Dirs, "Directories to watch for new tax forms")
	fs.String("log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	fs.String("log-format", def.Log.Format, "Log format (text, json)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n", fs.Name())
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvery option can also be set as %s_<KEY>, e.g. %s_DB_DSN, %s_OCR_DPI.\n",
			EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("db.dsn"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{GRPCAddr: v.GetString("grpc.addr")},
		OCR: OCRConfig{
			Engine:      v.GetString("ocr.engine"),
			Pdftoppm:    v.GetString("ocr.pdftoppm"),
			Tesseract:   v.GetString("ocr.tesseract"),
			Lang:        v.GetString("ocr.lang"),
			DPI:         v.GetInt("ocr.dpi"),
			PSM:         v.GetInt("ocr.psm"),
			TessdataDir: v.GetString("ocr.tessdata_dir"),
		},
		Storage: StorageConfig{WorkDir: v.GetString("storage.work_dir")},
		Queue: QueueConfig{
			Workers: v.GetInt("queue.workers"),
			Size:    v.GetInt("queue.size"),
			Timeout: v.GetDuration("queue.timeout"),
		},
		Ingest: IngestConfig{
			Dirs:     v.GetStringSlice("ingest.dirs"),
			Debounce: v.GetDuration("ingest.debounce"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "db.dsn is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "grpc.addr is required", ErrInvalidInput)
	}
	if c.Storage.WorkDir == "" {
		return NewAppError("CONFIG_ERROR", "storage.work_dir is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "ocr.dpi must be positive", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "tesseract", "gosseract":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("ocr.engine %q must be tesseract or gosseract", c.OCR.Engine), ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "queue.workers must be positive", ErrInvalidInput)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("log.format %q must be text or json", c.Log.Format), ErrInvalidInput)
	}
	return nil
}
