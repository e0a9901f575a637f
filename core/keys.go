package core

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Persisted key prefixes and fixed keys
const (
	KeyUsers           = "pizza_users"
	KeyCurrentUser     = "pizza_current_user"
	KeyCartPrefix      = "pizza_cart"
	KeyFavoritesPrefix = "pizza_favorites"
	KeyOrders          = "pizza_orders"

	// GuestScope is the namespace suffix used when nobody is logged in
	GuestScope = "guest"
)

// ScopedKey returns "<prefix>_<user>", or "<prefix>_guest" for the anonymous scope.
func ScopedKey(prefix, user string) string {
	if user == "" {
		return prefix + "_" + GuestScope
	}
	return prefix + "_" + user
}

// UserKey returns "<prefix>_<user>" and false when there is no user.
// Used by stores that have no guest fallback.
func UserKey(prefix, user string) (string, bool) {
	if user == "" {
		return "", false
	}
	return prefix + "_" + user, true
}

// ReadJSON loads key into dst, which must be a non-nil pointer. Every failure
// (storage error, missing key, corrupt JSON) is logged and reported as
// "no data"; it never propagates. dst is only written when the whole entry
// decodes, so a half-valid entry never leaks into it.
func ReadJSON(ctx context.Context, s Storage, key string, dst interface{}, logger Logger) bool {
	logger = OrNoOp(logger)

	raw, err := s.Get(ctx, key)
	if err != nil {
		logger.Warn("Storage read failed, treating as empty", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	if raw == "" {
		return false
	}
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		logger.Error("ReadJSON needs a non-nil pointer", map[string]interface{}{
			"key":  key,
			"type": fmt.Sprintf("%T", dst),
		})
		return false
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		logger.Warn("Corrupt storage entry, treating as empty", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	target.Elem().Set(fresh.Elem())
	return true
}

// WriteJSON serializes v under key.
func WriteJSON(ctx context.Context, s Storage, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data), ttl)
}
