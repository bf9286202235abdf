// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package integrity wires the response integrity engine into a
// runnable HTTP service: reasoning client, auditor, auto-coder,
// result store, routes, tracing and metrics.
//
// The engine's library packages (trust, timing, audit, coding,
// session) are independently usable; this package is the service
// shell around them.
package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fieldlens/integrity/services/integrity/audit"
	"github.com/fieldlens/integrity/services/integrity/coding"
	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/routes"
	"github.com/fieldlens/integrity/services/integrity/store"
	"github.com/fieldlens/integrity/services/llm"
)

// Service is the runnable integrity engine.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error
	// Router exposes the configured gin engine for integration tests.
	Router() *gin.Engine
}

// Config holds service configuration. Zero values use defaults.
type Config struct {
	// Port is the HTTP server port. Default: 8640.
	Port int

	// LLMBackend selects the reasoning provider: "openai" (default)
	// or "gemini".
	LLMBackend string

	// RedisAddr enables the Redis result store when set. Empty means
	// in-memory.
	RedisAddr string

	// APIKey guards /v1/integrity when set.
	APIKey string

	// OTelEndpoint enables OTLP trace export when set.
	OTelEndpoint string

	// GinMode sets the gin framework mode ("debug", "release",
	// "test"). Empty defers to the GIN_MODE env var.
	GinMode string
}

type service struct {
	config        Config
	router        *gin.Engine
	reasoning     llm.ReasoningClient
	results       store.ResultStore
	tracerCleanup func(context.Context)
}

// New initializes the service: tracing, reasoning client, result
// store, validations and routes.
func New(cfg Config) (Service, error) {
	if cfg.Port == 0 {
		cfg.Port = 8640
	}
	s := &service{config: cfg}

	cleanup, err := initTracer(cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	s.reasoning, err = llm.NewClient(cfg.LLMBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reasoning client: %w", err)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.results = store.NewRedisStore(rdb)
		slog.Info("Using Redis result store", "addr", cfg.RedisAddr)
	} else {
		s.results = store.NewMemoryStore()
		slog.Info("Using in-memory result store")
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := datatypes.RegisterValidations(v); err != nil {
			return nil, fmt.Errorf("failed to register validations: %w", err)
		}
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(otelgin.Middleware("integrity-engine"))
	routes.SetupRoutes(s.router, routes.Deps{
		Auditor: audit.New(s.reasoning),
		Coder:   coding.New(s.reasoning),
		Results: s.results,
		APIKey:  cfg.APIKey,
	})

	return s, nil
}

func (s *service) Run() error {
	defer func() {
		if s.tracerCleanup != nil {
			s.tracerCleanup(context.Background())
		}
	}()
	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting integrity engine", "addr", addr)
	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// initTracer sets up OTLP trace export. An empty endpoint leaves the
// global no-op tracer in place and returns a no-op cleanup.
func initTracer(endpoint string) (func(context.Context), error) {
	if endpoint == "" {
		return func(context.Context) {}, nil
	}
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("integrity-engine")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}
