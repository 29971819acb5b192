package domain

import "time"

// ============================================================
// Analytics: aggregates computed by the backend, rendered as-is
// ============================================================

// AgentPerformance counts contracts per agent across two 30-day windows.
type AgentPerformance struct {
	AgentID        string `json:"agent_id"`
	AgentName      string `json:"agent_name"`
	AgentEmail     string `json:"agent_email"`
	CompanyID      string `json:"company_id,omitempty"`
	PreviousPeriod int    `json:"previous_period"`
	CurrentPeriod  int    `json:"current_period"`
}

// Change is the period-over-period delta.
func (a AgentPerformance) Change() int {
	return a.CurrentPeriod - a.PreviousPeriod
}

// DashboardStats summarizes the scoped dashboard.
type DashboardStats struct {
	TotalUsers      int `json:"total_users"`
	ActiveUsers     int `json:"active_users"`
	TotalClients    int `json:"total_clients"`
	ContractsPeriod int `json:"contracts_current_period"`
	ContractsDelta  int `json:"contracts_delta"`
}

// Dashboard is the composed response for GET /api/dashboard.
type Dashboard struct {
	Branding    Branding                   `json:"branding"`
	Stats       DashboardStats             `json:"stats"`
	Users       Snapshot[User]             `json:"users"`
	Clients     Snapshot[ClientForm]       `json:"clients"`
	Performance Snapshot[AgentPerformance] `json:"performance"`
}

// Snapshot is a list as last fetched, with the error (if any) of the most
// recent refresh layered on top. Stale is true when Items predate Error.
type Snapshot[T any] struct {
	Items     []T        `json:"items"`
	Error     string     `json:"error,omitempty"`
	Action    string     `json:"action,omitempty"`
	Stale     bool       `json:"stale"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}
