package entitlement

import (
	"encoding/json"
	"fmt"
)

// StoredUnlimited is the sentinel persisted for an unlimited bound.
// It exists only at serialization edges (database columns, JSON payloads);
// domain code works with Limit values and never compares against -1.
const StoredUnlimited int64 = -1

// Limit is a quota bound: either a finite non-negative count or unlimited.
// The zero value is Limited(0), which denies everything.
type Limit struct {
	unlimited bool
	value     int64
}

// Limited returns a finite limit of n. Negative values are clamped to 0.
func Limited(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{value: n}
}

// Unlimited returns a limit that never blocks
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// LimitFromStored converts a persisted value into a Limit,
// mapping the StoredUnlimited sentinel to Unlimited()
func LimitFromStored(v int64) Limit {
	if v == StoredUnlimited {
		return Unlimited()
	}
	return Limited(v)
}

// IsUnlimited returns true if the limit never blocks
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Value returns the finite bound. ok is false for an unlimited limit.
func (l Limit) Value() (n int64, ok bool) {
	if l.unlimited {
		return 0, false
	}
	return l.value, true
}

// Reached returns true if current usage has met or exceeded the bound.
// Always false for an unlimited limit.
func (l Limit) Reached(current int64) bool {
	if l.unlimited {
		return false
	}
	return current >= l.value
}

// Remaining returns how much headroom is left, floored at 0.
// ok is false for an unlimited limit, where remaining is meaningless.
func (l Limit) Remaining(current int64) (n int64, ok bool) {
	if l.unlimited {
		return 0, false
	}
	remaining := l.value - current
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Stored returns the persistable representation: the finite bound,
// or StoredUnlimited for an unlimited limit
func (l Limit) Stored() int64 {
	if l.unlimited {
		return StoredUnlimited
	}
	return l.value
}

// String returns "unlimited" or the decimal bound
func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.value)
}

// MarshalJSON encodes the limit as its stored sentinel form
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Stored())
}

// UnmarshalJSON decodes a limit from its stored sentinel form
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v < StoredUnlimited {
		return fmt.Errorf("invalid limit value: %d", v)
	}
	*l = LimitFromStored(v)
	return nil
}
