package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ExplorerKeyPrefix     = "explorer:%d"
	EntryKeyPrefix        = "entry:%s"
	EntryListKeyPrefix    = "entries:public:first"
	RefreshTokenKeyPrefix = "refresh:%s"
)

const (
	ExplorerTTL     = 5 * time.Minute
	EntryTTL        = 10 * time.Minute
	EntryListTTL    = 1 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour
)

func ExplorerKey(explorerID uint) string {
	return fmt.Sprintf(ExplorerKeyPrefix, explorerID)
}

// EntryKey is keyed by public id; cached entries are served to anonymous
// viewers only, so no per-viewer state leaks through the cache.
func EntryKey(publicID string) string {
	return fmt.Sprintf(EntryKeyPrefix, publicID)
}

func EntryListKey() string {
	return EntryListKeyPrefix
}

func RefreshTokenKey(token string) string {
	return fmt.Sprintf(RefreshTokenKeyPrefix, token)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateExplorer(ctx context.Context, explorerID uint) {
	Invalidate(ctx, ExplorerKey(explorerID))
}

func InvalidateEntry(ctx context.Context, publicID string) {
	Invalidate(ctx, EntryKey(publicID))
}

func InvalidateEntryList(ctx context.Context) {
	Invalidate(ctx, EntryListKey())
}
