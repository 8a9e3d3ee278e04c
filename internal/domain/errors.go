package domain

import "errors"

// Error taxonomy for the engine. Callers match with errors.Is; details are
// attached at the raise site with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidScenario marks malformed or out-of-range scenario input,
	// raised by the boundary layer before the core is invoked.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrMissingPolicyParameter marks a required strategy parameter that is
	// absent at policy construction.
	ErrMissingPolicyParameter = errors.New("missing policy parameter")

	// ErrUnknownPolicyCode marks a lookup failure against the registered
	// strategy set.
	ErrUnknownPolicyCode = errors.New("unknown policy code")

	// ErrUnsupportedJurisdiction marks a tax computation requested for a
	// jurisdiction without rules.
	ErrUnsupportedJurisdiction = errors.New("unsupported jurisdiction")
)
