package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// groupScoped is implemented by requests that operate on a single group,
// so the access log can carry the group without knowing request types.
type groupScoped interface {
	GroupScope() string
}

func groupIDOf(req connect.AnyRequest) string {
	if gs, ok := req.Any().(groupScoped); ok {
		return gs.GroupScope()
	}
	return ""
}

// LoggingInterceptor returns a Connect interceptor that logs every ledger
// RPC: the procedure, the caller, the group in scope when the request names
// one, the duration, and the outcome.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx), // empty when logging wraps auth
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if groupID := groupIDOf(req); groupID != "" {
				attrs = append(attrs, "group_id", groupID)
			}

			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					attrs = append(attrs, "code", connectErr.Code(), "error", connectErr.Message())
					slog.Warn("Ledger call failed", attrs...)
				} else {
					attrs = append(attrs, "error", err)
					slog.Error("Ledger call failed", attrs...)
				}
				return resp, err
			}

			slog.Info("Ledger call", attrs...)
			return resp, err
		}
	}
}
