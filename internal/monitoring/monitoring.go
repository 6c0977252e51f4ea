package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	PrometheusEndpoint string
	LokiEndpoint       string
}

// Service provides monitoring functionality. Event counts are held in
// memory; the endpoints are where a scraper/forwarder would attach.
type Service struct {
	config Config

	mu     sync.Mutex
	counts map[string]int64
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config: config,
		counts: map[string]int64{},
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()

	s.mu.Lock()
	s.counts[eventName]++
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
}

// EventCounts returns a copy of the per-event counters since startup.
func (s *Service) EventCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.counts))
	for name, count := range s.counts {
		out[name] = count
	}
	return out
}
