package workflow

import "github.com/cockroachdb/errors"

// Error kinds returned by the workflow core. Handlers match them with
// errors.Is and map them to HTTP status codes; the core only attaches a
// human-readable detail message via errors.Wrap.
var (
	// ErrInvalidTransition means the entity's current status is not in the
	// declared source set of the requested transition.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden means the acting identity lacks the required role.
	// Role checks run strictly before state guards.
	ErrForbidden = errors.New("forbidden")

	// ErrPreconditionFailed means a named guard was not satisfied, e.g.
	// missing guilt scores or decisions.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrNotEligible means a domain rule rejected the request, e.g. bail
	// eligibility.
	ErrNotEligible = errors.New("not eligible")

	// ErrDuplicatePending means a uniqueness rule was violated, e.g. a
	// second pending bail for the same suspect.
	ErrDuplicatePending = errors.New("duplicate pending")

	// ErrBlockedSubmitter means the complainant is blocked from filing
	// after three strikes.
	ErrBlockedSubmitter = errors.New("blocked submitter")

	// ErrNotFound means a referenced entity or actor does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExternalService means the payment gateway was unreachable or
	// rejected the request; the operation is retryable.
	ErrExternalService = errors.New("external service failure")

	// ErrAlreadyProcessed means an idempotent replay of a completed claim
	// or payment; the existing terminal outcome stands.
	ErrAlreadyProcessed = errors.New("already processed")
)

// Named guard failures wrapping the base kinds
var (
	// ErrInvalidOrigin means a transition reserved for crime-scene cases
	// was attempted on a complaint-origin case.
	ErrInvalidOrigin = errors.Wrap(ErrPreconditionFailed, "case origin is not crime scene")

	// ErrEscalationNotRequired means a non-critical case attempted the
	// chief escalation reserved for the critical severity tier.
	ErrEscalationNotRequired = errors.Wrap(ErrPreconditionFailed, "chief escalation is only required for critical cases")

	// ErrDecisionIncomplete means a required captain or chief decision is
	// missing on at least one linked suspect.
	ErrDecisionIncomplete = errors.Wrap(ErrPreconditionFailed, "decision missing on linked suspects")
)
