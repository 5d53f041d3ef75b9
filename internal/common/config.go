package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Pipeline PipelineConfig
	Ingest   IngestConfig
	OCR      OCRConfig
	Models   ModelsConfig
	Output   OutputConfig
	Server   ServerConfig
	Queue    QueueConfig
	Log      LogConfig
}

// PipelineConfig holds classifier, anomaly and decision thresholds
type PipelineConfig struct {
	ClassifierMinConfidence float64 `env:"CLASSIFIER_MIN_CONFIDENCE,default=0.4" validate:"gte=0,lte=1"`
	TieEpsilon              float64 `env:"CLASSIFIER_TIE_EPSILON,default=0.5" validate:"gte=0"`
	UnknownPrior            float64 `env:"CLASSIFIER_UNKNOWN_PRIOR,default=2" validate:"gt=0"`
	AcceptThreshold         float64 `env:"DECISION_ACCEPT_THRESHOLD,default=0.6" validate:"gte=0,lte=1"`
	HardRejectThreshold     float64 `env:"DECISION_HARD_REJECT_THRESHOLD,default=0.2" validate:"gte=0,lte=1"`
	AmountTolerance         float64 `env:"ANOMALY_AMOUNT_TOLERANCE,default=0.01" validate:"gte=0"`
	FieldConfidenceFloor    float64 `env:"ANOMALY_FIELD_CONFIDENCE_FLOOR,default=0.5" validate:"gte=0,lte=1"`
	OCRConfidenceFloor      float64 `env:"ANOMALY_OCR_CONFIDENCE_FLOOR,default=0.6" validate:"gte=0,lte=1"`
}

// IngestConfig holds input limits
type IngestConfig struct {
	MaxBytes      int    `env:"INGEST_MAX_BYTES,default=26214400" validate:"gt=0"`
	MaxWidth      int    `env:"INGEST_MAX_WIDTH,default=12000" validate:"gt=0"`
	MaxHeight     int    `env:"INGEST_MAX_HEIGHT,default=12000" validate:"gt=0"`
	MaxPixels     int    `env:"INGEST_MAX_PIXELS,default=60000000" validate:"gt=0"`
	HeicConverter string `env:"HEIC_CONVERTER,default=magick" validate:"oneof=heif-convert magick sips"`
}

// OCRConfig holds OCR and layout-related configuration
type OCRConfig struct {
	Tesseract      string        `env:"TESSERACT_BIN,default=tesseract"`
	Lang           string        `env:"TESSERACT_LANG,default=eng"`
	TessdataDir    string        `env:"TESSDATA_PREFIX"`
	PSM            int           `env:"TESSERACT_PSM,default=3" validate:"gte=0,lte=13"`
	OEM            int           `env:"TESSERACT_OEM,default=0" validate:"gte=0,lte=3"`
	Timeout        time.Duration `env:"OCR_TIMEOUT,default=60s"`
	MinInkRatio    float64       `env:"LAYOUT_MIN_INK_RATIO,default=0.0005" validate:"gte=0,lt=1"`
	LineOverlap    float64       `env:"LAYOUT_LINE_OVERLAP,default=0.5" validate:"gt=0,lte=1"`
	BlockGapFactor float64       `env:"LAYOUT_BLOCK_GAP_FACTOR,default=1.6" validate:"gt=0"`
}

// ModelsConfig holds model registry configuration
type ModelsConfig struct {
	ManifestPath  string `env:"MODELS_MANIFEST"`
	LexiconDSN    string `env:"MODELS_LEXICON_DSN"`
	LexiconDriver string `env:"MODELS_LEXICON_DRIVER,default=sqlite" validate:"oneof=sqlite pgx"`
	EnableNER     bool   `env:"MODELS_ENABLE_NER,default=true"`
}

// OutputConfig holds artifact output configuration
type OutputConfig struct {
	Dir string `env:"OUTPUT_DIR,default=./output" validate:"required"`
}

// ServerConfig holds transport configuration
type ServerConfig struct {
	HTTPAddr       string        `env:"HTTP_ADDR,default=:8000"`
	GRPCAddr       string        `env:"GRPC_ADDR,default=:9090"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES,default=26214400" validate:"gt=0"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=2m"`
}

// QueueConfig holds batch/watch worker pool configuration
type QueueConfig struct {
	Workers        int           `env:"QUEUE_WORKERS,default=4" validate:"gt=0"`
	Size           int           `env:"QUEUE_SIZE,default=256" validate:"gt=0"`
	ProcessTimeout time.Duration `env:"QUEUE_PROCESS_TIMEOUT,default=3m"`
	Debounce       time.Duration `env:"WATCH_DEBOUNCE,default=500ms"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `env:"LOG_FORMAT,default=json" validate:"oneof=json text"`
}

// LoadConfig loads configuration from an optional .env file and the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "load .env", err)
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "parse environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration produced by an empty environment.
func DefaultConfig() Config {
	var cfg Config
	_, _ = env.UnmarshalFromEnviron(&cfg)
	return cfg
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	if c.Pipeline.HardRejectThreshold > c.Pipeline.AcceptThreshold {
		return NewAppError(CodeConfig,
			fmt.Sprintf("DECISION_HARD_REJECT_THRESHOLD (%.2f) must not exceed DECISION_ACCEPT_THRESHOLD (%.2f)",
				c.Pipeline.HardRejectThreshold, c.Pipeline.AcceptThreshold),
			ErrInvalidInput)
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToUpper(c.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LogConfig.
func NewLogger(c LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
