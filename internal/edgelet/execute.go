package edgelet

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/retry"
)

// operation names one client call. kind is a fixed label for metrics and
// spans; desc is the human readable form used in logs and errors.
type operation struct {
	kind string
	desc string
}

// result is the outcome of a successful execute: either a value, or a no-op
// when the endpoint answered with a non-error status the transport did not
// expect.
type result[T any] struct {
	value T
	noOp  bool
}

// execute runs call under the client's retry policy and translates failures.
func execute[T any](ctx context.Context, c *Client, op operation, call func(context.Context) (T, error)) (result[T], error) {
	ctx, span := c.tracer.Start(ctx, op.kind, trace.WithAttributes(
		attribute.String("edgemgmt.operation", op.desc),
		attribute.String("edgemgmt.api_version", c.version.String()),
	))
	defer span.End()

	logger := c.logger.With("operation", op.desc, "uri", c.uri)
	start := time.Now()
	logger.Debug("executing operation")

	value, err := retry.Do(ctx, c.policy, IsTransient,
		func(a retry.Attempt) {
			retriesTotal.WithLabelValues(op.kind).Inc()
			span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", a.Number)))
			logger.Debug("retrying operation", "attempt", a.Number, "delay", a.Delay, "error", a.Err)
		},
		func() (T, error) { return call(ctx) },
	)
	operationDuration.WithLabelValues(op.kind).Observe(time.Since(start).Seconds())

	if err == nil {
		operationsTotal.WithLabelValues(op.kind, outcomeLabelSuccess).Inc()
		logger.Debug("operation succeeded")
		return result[T]{value: value}, nil
	}

	noOp, err := translate(op.desc, err)
	if noOp {
		operationsTotal.WithLabelValues(op.kind, outcomeLabelNoOp).Inc()
		logger.Debug("operation completed without content")
		return result[T]{noOp: true}, nil
	}

	operationsTotal.WithLabelValues(op.kind, outcomeLabelError).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return result[T]{}, err
}

// executeVoid is execute for calls without a response payload.
func executeVoid(ctx context.Context, c *Client, op operation, call func(context.Context) error) error {
	_, err := execute(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	})
	return err
}

// translate maps a terminal failure onto the client's error taxonomy. noOp is
// true when the endpoint answered below 400 without a structured error body.
// Failures that did not come from the endpoint are returned unchanged.
func translate(operation string, err error) (noOp bool, _ error) {
	var apiErr *mgmtapi.APIError
	if !errors.As(err, &apiErr) {
		return false, err
	}
	if apiErr.Result != nil {
		return false, &Error{Operation: operation, Message: apiErr.Result.Message, StatusCode: apiErr.StatusCode}
	}
	if apiErr.StatusCode < 400 {
		return true, nil
	}
	return false, &Error{Operation: operation, Message: apiErr.Response, StatusCode: apiErr.StatusCode}
}
