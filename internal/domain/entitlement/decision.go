package entitlement

import "fmt"

// Deny reasons with externally observable wording. Clients and support
// tooling match on these strings; do not reword casually.
const (
	// ReasonOnlyTeachers denies class creation for non-teacher roles
	ReasonOnlyTeachers = "only teachers can create classes"

	// ReasonNoActiveSubscription denies enrollment when the institute has no active seat pool
	ReasonNoActiveSubscription = "no active subscription found"

	// ReasonProfileUnavailable denies gated actions when the usage profile cannot be read
	ReasonProfileUnavailable = "usage profile unavailable"
)

// Decision is the outcome of an entitlement check: whether the action is
// allowed right now, and the usage standing that produced the answer.
// Reason is set only on denial.
type Decision struct {
	Feature      Feature
	Allowed      bool
	Reason       string
	LimitReached bool // true when the denial is a quota exhaustion rather than a role or state failure
	CurrentUsage int64
	Limit        Limit
}

// Remaining returns the headroom left under the decision's limit, floored
// at 0. ok is false when the limit is unlimited.
func (d Decision) Remaining() (n int64, ok bool) {
	return d.Limit.Remaining(d.CurrentUsage)
}

// Allow builds a permitting decision
func Allow(f Feature, current int64, limit Limit) Decision {
	return Decision{
		Feature:      f,
		Allowed:      true,
		CurrentUsage: current,
		Limit:        limit,
	}
}

// DenyLimitReached builds a denial caused by quota exhaustion
func DenyLimitReached(f Feature, current int64, limit Limit) Decision {
	return Decision{
		Feature:      f,
		Allowed:      false,
		Reason:       limitReachedReason(f),
		LimitReached: true,
		CurrentUsage: current,
		Limit:        limit,
	}
}

// Deny builds a denial for a non-quota cause (role, missing profile,
// lapsed subscription)
func Deny(f Feature, reason string, current int64, limit Limit) Decision {
	return Decision{
		Feature:      f,
		Allowed:      false,
		Reason:       reason,
		CurrentUsage: current,
		Limit:        limit,
	}
}

func limitReachedReason(f Feature) string {
	switch f {
	case FeatureBookUpload:
		return "book upload limit reached"
	case FeatureQuizGeneration:
		return "quiz generation limit reached"
	case FeatureAIQuery:
		return "ai query limit reached"
	case FeatureClassCreation:
		return "class limit reached"
	default:
		return fmt.Sprintf("%s limit reached", f)
	}
}

// SeatDecision is the outcome of a seat availability check, carrying the
// pool standing alongside the verdict
type SeatDecision struct {
	Allowed        bool
	Reason         string
	LimitReached   bool
	UsedSeats      int64
	TotalSeats     Limit
	AvailableSeats int64 // 0 when unlimited; check TotalSeats.IsUnlimited first
}

// AllowSeat builds a permitting seat decision from the pool's standing
func AllowSeat(pool *SeatPool) SeatDecision {
	available, _ := pool.AvailableSeats()
	return SeatDecision{
		Allowed:        true,
		UsedSeats:      pool.UsedSeats,
		TotalSeats:     pool.TotalSeats,
		AvailableSeats: available,
	}
}

// DenySeatsExhausted builds a denial for a full pool
func DenySeatsExhausted(pool *SeatPool) SeatDecision {
	return SeatDecision{
		Allowed:      false,
		Reason:       "no seats available",
		LimitReached: true,
		UsedSeats:    pool.UsedSeats,
		TotalSeats:   pool.TotalSeats,
	}
}

// DenyNoSubscription builds a denial for a missing or inactive pool
func DenyNoSubscription() SeatDecision {
	return SeatDecision{
		Allowed: false,
		Reason:  ReasonNoActiveSubscription,
	}
}
