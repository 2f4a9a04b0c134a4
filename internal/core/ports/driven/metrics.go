package driven

import "time"

// Metrics records pipeline outcomes. A nil Metrics disables recording.
type Metrics interface {
	// ObserveAsk records one question with its outcome ("ok", "fallback", "error", "timeout").
	ObserveAsk(outcome string, elapsed time.Duration)

	// ObserveIndex records one build with its outcome and the number of chunks stored.
	ObserveIndex(outcome string, chunks int, elapsed time.Duration)
}
