package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gitlab.com/nunet/yarn-data/internal/repositories"

// RepositoryMetrics holds the collectors shared by instrumented repositories.
type RepositoryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRepositoryMetrics registers the repository collectors on reg. Registering
// twice on the same registry reuses the collectors already there.
func NewRepositoryMetrics(reg prometheus.Registerer) (*RepositoryMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yarn",
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Repository operations by entity, operation and outcome.",
	}, []string{"entity", "operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yarn",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Repository operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entity", "operation"})

	if err := reg.Register(operations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		operations = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return &RepositoryMetrics{operations: operations, duration: duration}, nil
}

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, NotFoundError):
		return OutcomeNotFound
	case errors.Is(err, UnauthorizedError):
		return OutcomeUnauthorized
	default:
		return OutcomeError
	}
}

// Operations returns the operation counter.
func (m *RepositoryMetrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// InstrumentedRepository records a counter, a latency observation and a span for
// every operation that reaches the backend. All() is lazy and is not recorded.
type InstrumentedRepository[T any, ID comparable] struct {
	RepositoryAdapter[T, ID]

	metrics *RepositoryMetrics
	entity  string
}

// NewInstrumentedRepository labels the metrics of repo with entity.
func NewInstrumentedRepository[T any, ID comparable](
	repo Repository[T, ID],
	metrics *RepositoryMetrics,
	entity string,
) *InstrumentedRepository[T, ID] {
	return &InstrumentedRepository[T, ID]{
		RepositoryAdapter: NewRepositoryAdapter(repo),
		metrics:           metrics,
		entity:            entity,
	}
}

// start opens the span of an operation. The returned func is deferred with a
// pointer to the named error result so it sees the final value.
func (r *InstrumentedRepository[T, ID]) start(ctx context.Context, operation string) (context.Context, func(*error)) {
	begin := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "repository."+operation, trace.WithAttributes(
		attribute.String("repository.entity", r.entity),
	))
	return ctx, func(err *error) {
		result := outcome(*err)
		r.metrics.operations.WithLabelValues(r.entity, operation, result).Inc()
		r.metrics.duration.WithLabelValues(r.entity, operation).Observe(time.Since(begin).Seconds())

		span.SetAttributes(attribute.String("repository.outcome", result))
		if *err != nil && result == OutcomeError {
			span.RecordError(*err)
			span.SetStatus(codes.Error, (*err).Error())
		}
		span.End()
	}
}

func (r *InstrumentedRepository[T, ID]) GetByID(ctx context.Context, id ID) (_ T, err error) {
	ctx, done := r.start(ctx, "get_by_id")
	defer done(&err)
	return r.Repository.GetByID(ctx, id)
}

func (r *InstrumentedRepository[T, ID]) Find(ctx context.Context, criteria Predicate) (_ T, err error) {
	ctx, done := r.start(ctx, "find")
	defer done(&err)
	return r.Repository.Find(ctx, criteria)
}

func (r *InstrumentedRepository[T, ID]) FindSpec(ctx context.Context, criteria Specification[T]) (_ T, err error) {
	ctx, done := r.start(ctx, "find")
	defer done(&err)
	return r.Repository.FindSpec(ctx, criteria)
}

func (r *InstrumentedRepository[T, ID]) FindAll(ctx context.Context, criteria Predicate, page Page) (_ []T, err error) {
	ctx, done := r.start(ctx, "find_all")
	defer done(&err)
	return r.Repository.FindAll(ctx, criteria, page)
}

func (r *InstrumentedRepository[T, ID]) FindAllSpec(
	ctx context.Context,
	criteria Specification[T],
	page Page,
) (_ []T, err error) {
	ctx, done := r.start(ctx, "find_all")
	defer done(&err)
	return r.Repository.FindAllSpec(ctx, criteria, page)
}

func (r *InstrumentedRepository[T, ID]) Execute(ctx context.Context, command string, params Params) (_ []T, err error) {
	ctx, done := r.start(ctx, "execute")
	defer done(&err)
	return r.Repository.Execute(ctx, command, params)
}

func (r *InstrumentedRepository[T, ID]) Add(ctx context.Context, entity T) (_ T, err error) {
	ctx, done := r.start(ctx, "add")
	defer done(&err)
	return r.Repository.Add(ctx, entity)
}

func (r *InstrumentedRepository[T, ID]) Update(ctx context.Context, entity T) (_ T, err error) {
	ctx, done := r.start(ctx, "update")
	defer done(&err)
	return r.Repository.Update(ctx, entity)
}

func (r *InstrumentedRepository[T, ID]) Remove(ctx context.Context, entity T) (_ T, err error) {
	ctx, done := r.start(ctx, "remove")
	defer done(&err)
	return r.Repository.Remove(ctx, entity)
}

func (r *InstrumentedRepository[T, ID]) RemoveByID(ctx context.Context, id ID) (_ T, err error) {
	ctx, done := r.start(ctx, "remove")
	defer done(&err)
	return r.Repository.RemoveByID(ctx, id)
}

func (r *InstrumentedRepository[T, ID]) Count(ctx context.Context) (_ int64, err error) {
	ctx, done := r.start(ctx, "count")
	defer done(&err)
	return r.Repository.Count(ctx)
}

func (r *InstrumentedRepository[T, ID]) CountWhere(ctx context.Context, criteria Predicate) (_ int64, err error) {
	ctx, done := r.start(ctx, "count")
	defer done(&err)
	return r.Repository.CountWhere(ctx, criteria)
}

func (r *InstrumentedRepository[T, ID]) CountSpec(ctx context.Context, criteria Specification[T]) (_ int64, err error) {
	ctx, done := r.start(ctx, "count")
	defer done(&err)
	return r.Repository.CountSpec(ctx, criteria)
}

func (r *InstrumentedRepository[T, ID]) Attach(ctx context.Context, entity T) (err error) {
	ctx, done := r.start(ctx, "attach")
	defer done(&err)
	return r.Repository.Attach(ctx, entity)
}

func (r *InstrumentedRepository[T, ID]) Detach(ctx context.Context, entity T) (err error) {
	ctx, done := r.start(ctx, "detach")
	defer done(&err)
	return r.Repository.Detach(ctx, entity)
}

func (r *InstrumentedRepository[T, ID]) Load(ctx context.Context) (_ LoadService[T], err error) {
	ctx, done := r.start(ctx, "load")
	defer done(&err)
	return r.Repository.Load(ctx)
}
