package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	LogDirectory   string
	ImageDirectory string
	DatabasePath   string

	ImageBufferLimit         int
	ImageBufferFlushInterval int // seconds

	AnalyzeURL string // remote static analysis endpoint; empty = local inference

	StreamMode                string // "remote", "local" or "off"
	StreamURL                 string
	StreamReconnectMaxElapsed time.Duration // 0 = a dropped connection halts the stream
	CameraDevice              string
	FrameInterval             time.Duration // outbound capture period
	FrameRate                 int           // display refresh ticks per second
	SmoothingDuration         time.Duration
	DisplayWidth              int
	DisplayHeight             int

	ModelPath          string
	ConfigPath         string
	DetectionThreshold float64

	SessionTTL     time.Duration
	LoginTTL       time.Duration
	MaxImagePixels int // uploads with more pixels are rejected before decoding
}

// MaxFrameRate bounds FRAME_RATE so the refresh interval stays positive.
const MaxFrameRate = 1000

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                      getEnvAsInt("PORT", 8080),
		Password:                  getEnv("PASSWORD", "detectview"),
		LogDirectory:              getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ImageDirectory:            getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		DatabasePath:              getEnv("DB_PATH", filepath.Join(".", "data", "analyses.db")),
		ImageBufferLimit:          getEnvAsInt("BUFFER_LIMIT", 10),
		ImageBufferFlushInterval:  getEnvAsInt("FLUSH_INTERVAL", 30),
		AnalyzeURL:                getEnv("ANALYZE_URL", ""),
		StreamMode:                getEnv("STREAM_MODE", "off"),
		StreamURL:                 getEnv("STREAM_URL", "ws://localhost:8000/ws/detect"),
		StreamReconnectMaxElapsed: getEnvAsDuration("STREAM_RECONNECT_MAX_ELAPSED", 0),
		CameraDevice:              getEnv("CAMERA_DEVICE", "0"),
		FrameInterval:             getEnvAsDuration("FRAME_INTERVAL", 100*time.Millisecond),
		FrameRate:                 frameRate(getEnvAsInt("FRAME_RATE", 60)),
		SmoothingDuration:         getEnvAsDuration("SMOOTHING_DURATION", 100*time.Millisecond),
		DisplayWidth:              getEnvAsInt("DISPLAY_WIDTH", 800),
		DisplayHeight:             getEnvAsInt("DISPLAY_HEIGHT", 600),
		ModelPath:                 getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:                getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		DetectionThreshold:        getEnvAsFloat("DETECTION_THRESHOLD", 0.5),
		SessionTTL:                getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		LoginTTL:                  getEnvAsDuration("LOGIN_TTL", 30*24*time.Hour),
		MaxImagePixels:            getEnvAsInt("MAX_IMAGE_PIXELS", 40_000_000),
	}
}

// frameRate falls back to 60 for non-positive values and caps at MaxFrameRate.
func frameRate(fps int) int {
	if fps <= 0 {
		return 60
	}
	if fps > MaxFrameRate {
		return MaxFrameRate
	}
	return fps
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("250ms") or plain milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
