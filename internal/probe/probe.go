// Package probe defines the result type shared by dependency health probes.
package probe

// Result is returned by each dependency probe and rendered by the deep
// health endpoint.
type Result struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}
