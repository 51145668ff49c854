package policy

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotImplemented is returned for policy types the delta calculation
// does not support. The group-policy schema permits them, but only flat
// numeric change policies are implemented; callers must surface this
// rather than defaulting to zero change.
var ErrNotImplemented = errors.New("policy type not implemented")

// ErrCooldown is returned when a policy fires before its cooldown elapsed.
var ErrCooldown = errors.New("policy is in cooldown")

// Type is the kind of capacity adjustment a policy performs.
type Type string

const (
	// TypeChange adjusts desired capacity by a flat amount.
	TypeChange Type = "change"

	// TypeChangePercent and TypeDesiredCapacity are accepted by the schema
	// but not implemented by the delta calculation.
	TypeChangePercent   Type = "change_percent"
	TypeDesiredCapacity Type = "desired_capacity"
)

// Policy is one scaling policy attached to a group.
type Policy struct {
	ID       string
	Type     Type
	Change   int
	Cooldown time.Duration
}

// Limits bounds a group's desired capacity.
type Limits struct {
	MinEntities int
	MaxEntities int
}

// Clamp bounds a desired capacity to the group's limits. A zero MaxEntities
// means unbounded above.
func (l Limits) Clamp(desired int) int {
	if desired < l.MinEntities {
		desired = l.MinEntities
	}
	if l.MaxEntities > 0 && desired > l.MaxEntities {
		desired = l.MaxEntities
	}
	if desired < 0 {
		desired = 0
	}
	return desired
}

// Apply computes the new desired capacity after executing the policy
// against the current desired capacity, clamped to the group's limits.
// Only flat change policies are supported.
func Apply(p Policy, current int, limits Limits) (int, error) {
	switch p.Type {
	case TypeChange:
		return limits.Clamp(current + p.Change), nil
	case TypeChangePercent, TypeDesiredCapacity:
		return 0, fmt.Errorf("%w: %s", ErrNotImplemented, p.Type)
	default:
		return 0, fmt.Errorf("unknown policy type %q", p.Type)
	}
}

// CheckCooldown reports whether the policy may fire at now given the time
// it last executed. A zero lastExecuted always passes.
func CheckCooldown(p Policy, lastExecuted, now time.Time) error {
	if lastExecuted.IsZero() || p.Cooldown <= 0 {
		return nil
	}
	if now.Sub(lastExecuted) < p.Cooldown {
		return fmt.Errorf("%w: %s until %s", ErrCooldown, p.ID, lastExecuted.Add(p.Cooldown).Format(time.RFC3339))
	}
	return nil
}
