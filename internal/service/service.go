// Package service holds the engines that authorize and apply mutations to
// the social graph.
package service

import (
	"context"
	"log/slog"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// run executes one engine mutation inside a span. Business failures returned
// by fn become declined results; faults are returned as errors.
func run[T any](ctx context.Context, operation string, actorID uint, fn func(ctx context.Context) (*models.Result[T], error)) (*models.Result[T], error) {
	ctx, finish := observability.StartSpan(ctx, "service."+operation, attribute.Int64("actor.id", int64(actorID)))

	res, err := fn(ctx)
	if err != nil {
		res, err = models.Outcome[T](err)
	}
	finish(err)

	switch {
	case err != nil:
		observability.RecordOutcome(operation, string(models.CodeOf(err)))
		middleware.Logger.ErrorContext(ctx, "mutation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	case res.Success:
		observability.RecordOutcome(operation, "ok")
	default:
		observability.RecordOutcome(operation, string(res.Code))
	}
	return res, err
}

// removeObject deletes key best-effort. Failures are logged and the object
// is left orphaned.
func removeObject(ctx context.Context, store storage.ObjectStore, bucket, key string) {
	if store == nil || key == "" {
		return
	}
	if _, err := store.Delete(context.WithoutCancel(ctx), bucket, key); err != nil {
		middleware.Logger.WarnContext(ctx, "object cleanup failed",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
