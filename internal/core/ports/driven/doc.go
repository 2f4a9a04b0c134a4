// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Normaliser / NormaliserRegistry: Extract text from uploaded bytes
//   - Chunker: Split extracted text into overlapping chunks
//   - EmbeddingService: Map text to fixed-dimension vectors
//   - VectorIndex: Store embedding records and answer similarity queries
//   - LLMService: Generate grounded answers
//   - ConversationMemory: Ordered log of question/answer turns
//   - PromptStore: User-editable prompt templates
//   - ConfigStore: Application configuration
//   - Metrics: Pipeline counters and latencies (optional, nil disables)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
