/*
Package policy implements the capacity-adjustment math for scaling
policies.

Apply computes a group's new desired capacity from a policy and the current
desired capacity, clamped to the group's min/max entity limits. Only flat
numeric "change" policies are implemented; percentage and absolute-capacity
policies return ErrNotImplemented so the caller can report the failure
instead of silently applying no change.

CheckCooldown gates how often a policy may fire: a policy inside its
cooldown window returns ErrCooldown and must not be applied.
*/
package policy
