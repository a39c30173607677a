// Package tracing wires OpenTelemetry around the two external
// dependencies of a request: the node store and the generation provider.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
	"foodatlas-backend/internal/service/llm"
)

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes distributed tracing against an OTLP endpoint.
func InitTracing(serviceName, environment, endpoint string) (*TracerProvider, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{
		provider: tp,
		tracer:   tp.Tracer(serviceName),
	}, nil
}

// Tracer returns the service tracer for decorating dependencies.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown flushes and stops the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// TraceRepository wraps a node repository so every store round-trip
// becomes a span.
func TraceRepository(repo repository.NodeRepository, tracer trace.Tracer) repository.NodeRepository {
	return &tracedNodeRepository{
		inner:  repo,
		tracer: tracer,
	}
}

type tracedNodeRepository struct {
	inner  repository.NodeRepository
	tracer trace.Tracer
}

func (r *tracedNodeRepository) CreateNode(ctx context.Context, node domain.Node) error {
	ctx, span := r.tracer.Start(ctx, "repository.CreateNode",
		trace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.kind", string(node.Kind)),
			attribute.String("node.city", node.City),
		),
	)
	defer span.End()

	err := r.inner.CreateNode(ctx, node)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *tracedNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindNodeByID",
		trace.WithAttributes(attribute.String("node.id", id)),
	)
	defer span.End()

	node, err := r.inner.FindNodeByID(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return node, err
}

func (r *tracedNodeRepository) FindByIdentity(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindByIdentity",
		trace.WithAttributes(
			attribute.String("node.name", name),
			attribute.String("node.city", city),
		),
	)
	defer span.End()

	node, err := r.inner.FindByIdentity(ctx, name, parentID, city)
	if err != nil {
		span.RecordError(err)
	}
	return node, err
}

func (r *tracedNodeRepository) FindChildren(ctx context.Context, query repository.ChildQuery) ([]domain.Node, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindChildren",
		trace.WithAttributes(
			attribute.String("query.city", query.City),
			attribute.String("query.kind", string(query.Kind)),
		),
	)
	defer span.End()

	nodes, err := r.inner.FindChildren(ctx, query)
	if err != nil {
		span.RecordError(err)
	}
	return nodes, err
}

func (r *tracedNodeRepository) FindItemByName(ctx context.Context, name, city string) (*domain.Node, error) {
	ctx, span := r.tracer.Start(ctx, "repository.FindItemByName",
		trace.WithAttributes(
			attribute.String("item.name", name),
			attribute.String("item.city", city),
		),
	)
	defer span.End()

	node, err := r.inner.FindItemByName(ctx, name, city)
	if err != nil {
		span.RecordError(err)
	}
	return node, err
}

func (r *tracedNodeRepository) ScanNodes(ctx context.Context, fn func(domain.Node) error) error {
	ctx, span := r.tracer.Start(ctx, "repository.ScanNodes")
	defer span.End()

	err := r.inner.ScanNodes(ctx, fn)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *tracedNodeRepository) DeleteNode(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "repository.DeleteNode",
		trace.WithAttributes(attribute.String("node.id", id)),
	)
	defer span.End()

	err := r.inner.DeleteNode(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// TraceProvider wraps a generation provider so every completion call
// becomes a span.
func TraceProvider(provider llm.Provider, tracer trace.Tracer) llm.Provider {
	return &tracedProvider{
		inner:  provider,
		tracer: tracer,
	}
}

type tracedProvider struct {
	inner  llm.Provider
	tracer trace.Tracer
}

func (p *tracedProvider) Complete(ctx context.Context, prompt string, options llm.CompletionOptions) (string, error) {
	ctx, span := p.tracer.Start(ctx, "llm.Complete",
		trace.WithAttributes(
			attribute.Int("prompt.length", len(prompt)),
			attribute.Int("options.max_tokens", options.MaxTokens),
		),
	)
	defer span.End()

	response, err := p.inner.Complete(ctx, prompt, options)
	if err != nil {
		span.RecordError(err)
	}
	return response, err
}

func (p *tracedProvider) IsAvailable() bool {
	return p.inner.IsAvailable()
}
