// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command integrity starts the response integrity engine HTTP server.
//
// Configuration is read from environment variables:
//
//   - INTEGRITY_PORT: HTTP server port (default: 8640)
//   - LLM_BACKEND_TYPE: reasoning provider - openai, gemini (default: openai)
//   - OPENAI_API_KEY / OPENAI_MODEL: OpenAI backend settings
//   - GEMINI_API_KEY / GEMINI_MODEL: Gemini backend settings
//   - REDIS_ADDR: Redis result store address (optional; in-memory when unset)
//   - INTEGRITY_API_KEY: shared bearer key for /v1/integrity (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/fieldlens/integrity/services/integrity"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := integrity.Config{
		Port:         getEnvInt("INTEGRITY_PORT", 8640),
		LLMBackend:   getEnvString("LLM_BACKEND_TYPE", "openai"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		APIKey:       os.Getenv("INTEGRITY_API_KEY"),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	slog.Info("Starting integrity engine",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"redis", cfg.RedisAddr != "",
	)

	svc, err := integrity.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create integrity engine: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Integrity engine error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
