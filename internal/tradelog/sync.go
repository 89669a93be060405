package tradelog

import (
	"context"
	"log/slog"
)

// Sync mirrors one simulation result into the store. A failed sync leaves
// the previous contents in place.
func Sync(ctx context.Context, store *Store, res Result) error {
	if err := store.Replace(ctx, res); err != nil {
		return err
	}
	slog.Debug("synced trades", "count", len(res.Trades))
	return nil
}
