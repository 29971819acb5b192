package domain

// ============================================================
// Health API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// PortalMetrics is the operator summary served at GET /api/admin/metrics.
type PortalMetrics struct {
	GateDecisions        map[string]int64 `json:"gate_decisions"`
	UpstreamErrors       map[string]int64 `json:"upstream_errors"`
	StaleSnapshotsServed int64            `json:"stale_snapshots_served"`
	HydrationFailures    int64            `json:"hydration_failures"`
	BrandingCacheHitRate float64          `json:"branding_cache_hit_rate"`
}
