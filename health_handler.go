package vecfleet

import (
	"math"
	"net/http"
	"time"

	"github.com/hupe1980/vecfleet/codec"
)

// healthResponse is the read-only operator projection of GetHealthStatus.
type healthResponse struct {
	Status     HealthState    `json:"status"`
	InstanceID string         `json:"instanceId"`
	Role       Role           `json:"role"`
	Uptime     int64          `json:"uptime"`
	LastCheck  time.Time      `json:"lastCheck"`
	Metrics    roundedMetrics `json:"metrics"`
	Warnings   []string       `json:"warnings"`
	Errors     []string       `json:"errors"`
}

// roundedMetrics buckets metric values for readability.
type roundedMetrics struct {
	VectorCount       int     `json:"vectorCount"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	MemoryUsageMB     int64   `json:"memoryUsageMB"`
	CPUUsage          float64 `json:"cpuUsage"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	AverageLatencyMs  float64 `json:"averageLatencyMs"`
	ErrorRate         float64 `json:"errorRate"`
}

// HealthHandler exposes the monitor's classification plus the
// coordinator's identity as an HTTP endpoint for operators. Responses
// never interrupt operation: an unhealthy status is reported with 503 but
// the instance keeps serving.
func HealthHandler(monitor *HealthMonitor, coordinator *Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := monitor.GetHealthStatus()

		resp := healthResponse{
			Status:     status.Status,
			InstanceID: coordinator.InstanceID(),
			Role:       coordinator.Role(),
			Uptime:     int64(status.Uptime.Seconds()),
			LastCheck:  time.Now().UTC(),
			Metrics: roundedMetrics{
				VectorCount:       status.Metrics.VectorCount,
				CacheHitRate:      round2(status.Metrics.CacheHitRate),
				MemoryUsageMB:     status.Metrics.MemoryUsage / (1 << 20),
				CPUUsage:          round2(status.Metrics.CPUUsage),
				RequestsPerSecond: round2(status.Metrics.RequestsPerSecond),
				AverageLatencyMs:  round2(status.Metrics.AverageLatency),
				ErrorRate:         round2(status.Metrics.ErrorRate),
			},
			Warnings: status.Warnings,
			Errors:   status.Errors,
		}
		if resp.Warnings == nil {
			resp.Warnings = []string{}
		}
		if resp.Errors == nil {
			resp.Errors = []string{}
		}

		data, err := codec.JSON{}.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if status.Status == Unhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(data)
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
