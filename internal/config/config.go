package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr         string
	DataPath           string
	ColorNamesPath     string
	SampleWidth        int
	SampleHeight       int
	ClusterCount       int
	ClusterAttempts    int
	ClusterIterations  int
	ClusterWorkers     int
	MaxUploadSizeBytes int64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DataPath:           getEnv("DATA_PATH", "./data/state.json"),
		ColorNamesPath:     getEnv("COLOR_NAMES_PATH", ""),
		SampleWidth:        getEnvInt("SAMPLE_WIDTH", 64),
		SampleHeight:       getEnvInt("SAMPLE_HEIGHT", 64),
		ClusterCount:       getEnvInt("CLUSTER_COUNT", 5),
		ClusterAttempts:    getEnvInt("CLUSTER_ATTEMPTS", 5),
		ClusterIterations:  getEnvInt("CLUSTER_ITERATIONS", 50),
		ClusterWorkers:     getEnvInt("CLUSTER_WORKERS", 0),
		MaxUploadSizeBytes: getEnvInt64("MAX_UPLOAD_SIZE_BYTES", 8*1024*1024),
	}

	if cfg.SampleWidth <= 0 || cfg.SampleHeight <= 0 {
		return Config{}, errors.New("sample width/height must be > 0")
	}
	if cfg.ClusterCount <= 0 {
		return Config{}, errors.New("cluster count must be > 0")
	}
	if cfg.ClusterCount > cfg.SampleWidth*cfg.SampleHeight {
		return Config{}, errors.New("cluster count exceeds sample pixel count")
	}
	if cfg.ClusterAttempts <= 0 {
		return Config{}, errors.New("cluster attempts must be > 0")
	}
	if cfg.ClusterIterations <= 0 {
		return Config{}, errors.New("cluster iterations must be > 0")
	}
	if cfg.ClusterWorkers < 0 {
		return Config{}, errors.New("cluster workers must be >= 0")
	}
	if cfg.MaxUploadSizeBytes <= 0 {
		return Config{}, errors.New("max upload size must be > 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
