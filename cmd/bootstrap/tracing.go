package bootstrap

import (
	"context"
	"log/slog"

	"venue-booking/internal/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var TracingModule = fx.Module("tracing",
	fx.Invoke(InitTracer),
)

// InitTracer installs an OTLP exporter as the global tracer provider.
// Without an endpoint the global no-op provider stays in place.
func InitTracer(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) error {
	if cfg.Tracing.OTLPEndpoint == "" {
		return nil
	}

	conn, err := grpc.NewClient(cfg.Tracing.OTLPEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	exp, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.Tracing.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Tracing.Environment),
		),
	)
	if err != nil {
		logger.Warn("Tracing resource incomplete", "error", err.Error())
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				return err
			}
			return conn.Close()
		},
	})

	logger.Info("Tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	return nil
}
