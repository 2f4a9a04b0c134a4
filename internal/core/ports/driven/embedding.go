package driven

import "context"

// EmbeddingService turns text into vectors. Every vector a service returns
// has the same length, and the vector index only accepts that length.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in the order given.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 if the service has not
	// produced a vector yet and cannot tell from the model name.
	Dimensions() int

	// ModelName identifies the model, for status output and validation.
	ModelName() string

	// Ping makes the cheapest request that proves credentials and model work.
	Ping(ctx context.Context) error

	Close() error
}
