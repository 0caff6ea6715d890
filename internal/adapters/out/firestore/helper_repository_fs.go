// internal/adapters/out/firestore/helper_repository_fs.go
package firestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

// asStringPtr keeps "missing / null / blank" as nil.
func asStringPtr(v any) *string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return nil
	}
	return &s
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case string:
		var n int
		_, _ = fmt.Sscanf(strings.TrimSpace(t), "%d", &n)
		return n
	}
	return 0
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1"
	case int64:
		return t != 0
	}
	return false
}

// asDecimal accepts the numeric and decimal-as-string encodings of a price.
func asDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case int64:
		return decimal.NewFromInt(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	return decimal.Zero, fmt.Errorf("firestore: unsupported price value %T", v)
}

// asTime returns (time, ok)
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if tt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t)); err == nil {
			return tt, true
		}
	}
	return time.Time{}, false
}
