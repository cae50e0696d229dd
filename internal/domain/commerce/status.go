package commerce

import (
	"sort"
	"strings"
	"sync"
)

// StatusPrefix is carried by every store order status
const StatusPrefix = "wc-"

// Status is a store order status such as "wc-processing".
// The set is open: plugins and the connector itself register extra statuses.
type Status string

const (
	StatusPending    Status = "wc-pending"
	StatusProcessing Status = "wc-processing"
	StatusOnHold     Status = "wc-on-hold"
	StatusCompleted  Status = "wc-completed"
	StatusCancelled  Status = "wc-cancelled"
	StatusRefunded   Status = "wc-refunded"
	StatusFailed     Status = "wc-failed"
	StatusShipped    Status = "wc-shipped"
	StatusDelivered  Status = "wc-delivered"
)

// ParseStatus normalizes a status name. "processing", "WC-Processing" and
// "wc-processing" all yield StatusProcessing. Empty input yields "".
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, StatusPrefix) {
		s = StatusPrefix + s
	}
	return Status(s)
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// StatusRegistry holds the statuses known to the store with their labels.
type StatusRegistry struct {
	mu     sync.RWMutex
	labels map[Status]string
}

// NewStatusRegistry creates a registry holding the built-in store statuses
// plus the shipped and delivered statuses the connector adds.
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		labels: map[Status]string{
			StatusPending:    "Pending payment",
			StatusProcessing: "Processing",
			StatusOnHold:     "On hold",
			StatusCompleted:  "Completed",
			StatusCancelled:  "Cancelled",
			StatusRefunded:   "Refunded",
			StatusFailed:     "Failed",
			StatusShipped:    "Expédiée",
			StatusDelivered:  "Livrée",
		},
	}
}

// Register adds or relabels a status
func (r *StatusRegistry) Register(status Status, label string) {
	status = ParseStatus(string(status))
	if status == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[status] = label
}

// Known reports whether the status is registered
func (r *StatusRegistry) Known(status Status) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.labels[ParseStatus(string(status))]
	return ok
}

// Label returns the display label, falling back to the status itself.
func (r *StatusRegistry) Label(status Status) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if label, ok := r.labels[ParseStatus(string(status))]; ok {
		return label
	}
	return string(status)
}

// All returns every registered status in lexical order
func (r *StatusRegistry) All() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.labels))
	for s := range r.labels {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
