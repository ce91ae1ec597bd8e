// Package health provides the operational HTTP surface: health status,
// error metrics, trends, alert history and breaker/queue visibility.
package health

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Health score cutoffs for status aggregation.
const (
	healthyFloor  = 80.0
	degradedFloor = 50.0
)

// StatusFor maps a 0-100 health score onto a system status.
func StatusFor(score float64) SystemStatus {
	switch {
	case score >= healthyFloor:
		return StatusHealthy
	case score >= degradedFloor:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
