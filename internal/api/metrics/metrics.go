// Package metrics defines the custom Prometheus metrics for the tourism site.
// It is the single source of truth for metric names, labels and help strings.
//
// Collectors are registered with the default registry through promauto at
// package init; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tourismsite/tourism/internal/core/domain"
)

const namespace = "tourism"

// Result label values.
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultDenied   = "denied"
	ResultError    = "error"
	ResultMissing  = "missing"
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: success, invalid, conflict or error
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, labelled by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: success, denied or error
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// IdentityRehydrationsTotal counts lookups of the session-bound user.
// Label:
//   - result: success, missing (stale id) or error
var IdentityRehydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_rehydrations_total",
		Help:      "Total number of per-request user rehydrations from the session.",
	},
	[]string{"result"},
)

// Result maps an auth outcome to its label value.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, domain.ErrValidation):
		return ResultInvalid
	case errors.Is(err, domain.ErrConflict):
		return ResultConflict
	case errors.Is(err, domain.ErrAuth):
		return ResultDenied
	case errors.Is(err, domain.ErrUserNotFound):
		return ResultMissing
	default:
		return ResultError
	}
}
