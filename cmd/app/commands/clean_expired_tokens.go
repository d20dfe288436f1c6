package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// TokenCleaner deletes session tokens that expired before now minus olderThan.
type TokenCleaner interface {
	CleanExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EventPurger deletes processed security events older than the retention window.
type EventPurger interface {
	PurgeProcessed(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanExpiredTokensResult is the JSON shape of a clean-expired-tokens run.
type CleanExpiredTokensResult struct {
	Days          int   `json:"days"`
	TokensDeleted int64 `json:"tokens_deleted"`
	EventsPurged  int64 `json:"events_purged"`
}

// RunCleanExpiredTokens deletes session tokens expired for more than days and, when
// events is non-nil, processed outbox events older than retention.
func RunCleanExpiredTokens(
	ctx context.Context,
	tokens TokenCleaner,
	events EventPurger,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	retention time.Duration,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	logger.Info("cleaning expired tokens", slog.Int("days", days))

	result := CleanExpiredTokensResult{Days: days}

	var err error
	result.TokensDeleted, err = tokens.CleanExpiredTokens(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to clean expired tokens: %w", err)
	}

	if events != nil && retention > 0 {
		result.EventsPurged, err = events.PurgeProcessed(ctx, retention)
		if err != nil {
			return fmt.Errorf("failed to purge processed events: %w", err)
		}
	}

	logger.Info("cleanup completed",
		slog.Int64("tokens_deleted", result.TokensDeleted),
		slog.Int64("events_purged", result.EventsPurged),
	)

	return writeOutput(writer, format, result, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Deleted %d expired token(s) older than %d day(s)\n", result.TokensDeleted, days)
		if events != nil {
			_, _ = fmt.Fprintf(w, "Purged %d processed security event(s)\n", result.EventsPurged)
		}
	})
}
