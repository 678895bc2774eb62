package logging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. Errors built with oops contribute
// their domain, code and context as attributes.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.String("error", err.Error())}

	if oopsErr, ok := oops.AsOops(err); ok {
		if domain := oopsErr.Domain(); domain != "" {
			attrs = append(attrs, slog.String("domain", domain))
		}
		if code := fmt.Sprint(oopsErr.Code()); code != "" && code != "<nil>" {
			attrs = append(attrs, slog.String("code", code))
		}
		for k, v := range oopsErr.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
