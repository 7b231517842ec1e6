package types

// Health status values, ordered from best to worst.
const (
	// StatusHealthy indicates the component is fully operational.
	StatusHealthy = "healthy"

	// StatusDegraded indicates the component works with reduced capability,
	// for example speech without an audio player.
	StatusDegraded = "degraded"

	// StatusUnhealthy indicates the component cannot work.
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the outcome of one health check.
type HealthStatus struct {
	// Status is one of StatusHealthy, StatusDegraded or StatusUnhealthy.
	Status string `json:"status"`

	// Message is a one-line human-readable explanation.
	Message string `json:"message,omitempty"`

	// Details holds diagnostic values such as the URL probed or the error.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the status is StatusHealthy.
func (h HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// IsDegraded returns true if the status is StatusDegraded.
func (h HealthStatus) IsDegraded() bool {
	return h.Status == StatusDegraded
}

// IsUnhealthy returns true if the status is StatusUnhealthy.
func (h HealthStatus) IsUnhealthy() bool {
	return h.Status == StatusUnhealthy
}

// Severity ranks the status: 0 healthy, 1 degraded, 2 unhealthy. Unknown
// values rank as unhealthy.
func (h HealthStatus) Severity() int {
	switch h.Status {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the status with the highest severity. Ties keep the
// earliest.
func Worst(statuses ...HealthStatus) HealthStatus {
	if len(statuses) == 0 {
		return NewHealthyStatus("")
	}
	worst := statuses[0]
	for _, s := range statuses[1:] {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}

// NewHealthyStatus creates a healthy status.
func NewHealthyStatus(message string) HealthStatus {
	return HealthStatus{
		Status:  StatusHealthy,
		Message: message,
	}
}

// NewDegradedStatus creates a degraded status.
func NewDegradedStatus(message string, details map[string]any) HealthStatus {
	return HealthStatus{
		Status:  StatusDegraded,
		Message: message,
		Details: details,
	}
}

// NewUnhealthyStatus creates an unhealthy status.
func NewUnhealthyStatus(message string, details map[string]any) HealthStatus {
	return HealthStatus{
		Status:  StatusUnhealthy,
		Message: message,
		Details: details,
	}
}
