package config

import (
	"os"
	"strconv"
	"time"
)

type FaceConfig struct {
	CosineThreshold float64       // minimum similarity to accept a verification
	ReceiptTimeout  time.Duration // pickup receipt QR lifetime
}

func LoadFaceConfig() *FaceConfig {
	return &FaceConfig{
		CosineThreshold: getEnvAsFloat("FACE_COSINE_THRESHOLD", 0.6),
		ReceiptTimeout:  getEnvAsDuration("RECEIPT_TIMEOUT", 10*time.Minute),
	}
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
