package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Password gate for the HTTP surface. Auth requests fail with a
	// configuration error while this is unset.
	AppPassword string `env:"APP_PASSWORD"`

	// Transcription upstream (Groq-hosted Whisper, OpenAI-compatible).
	GroqAPIKey        string        `env:"GROQ_API_KEY"`
	TranscribeURL     string        `env:"TRANSCRIBE_URL" envDefault:"https://api.groq.com/openai/v1/audio/transcriptions"`
	WhisperModel      string        `env:"WHISPER_MODEL" envDefault:"whisper-large-v3-turbo"`
	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"5m"`

	// Generation upstream (OpenAI Responses API).
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	GenerateURL     string        `env:"GENERATE_URL" envDefault:"https://api.openai.com/v1/responses"`
	GenerateModel   string        `env:"GENERATE_MODEL" envDefault:"gpt-5.1"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"3m"`

	// Transfer routing. Uploads above DirectMaxBytes are staged in blob
	// storage; the 25 MiB hard cap is fixed by the transcription service
	// and not configurable.
	DirectMaxBytes int64 `env:"DIRECT_UPLOAD_MAX_BYTES" envDefault:"4194304"`

	// Staged blob storage. S3 is used when a bucket is configured,
	// otherwise a local directory.
	S3      S3Config
	BlobDir string `env:"BLOB_DIR" envDefault:"./blobs"`

	// Print-style export header image. Empty disables the header block.
	HeaderImageURL     string        `env:"HEADER_IMAGE_URL"`
	HeaderImageTimeout time.Duration `env:"HEADER_IMAGE_TIMEOUT" envDefault:"10s"`

	// Optional watch-folder ingest. Empty disables the watcher.
	WatchDir string `env:"WATCH_DIR"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// Transcription calls run for minutes on long recordings, so the
	// write timeout is generous rather than the usual web default.
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5m"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
}

// S3Config configures the S3-compatible staging store.
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"S3_BUCKET"`
	Prefix    string `env:"S3_PREFIX" envDefault:"staged"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

// Enabled reports whether S3 staging is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile  string
	HTTPAddr string
	LogLevel string
	BlobDir  string
	WatchDir string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.BlobDir != "" {
		cfg.BlobDir = overrides.BlobDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}

	return cfg, nil
}
