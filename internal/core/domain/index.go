package domain

import "fmt"

// IndexPolicy decides what a new upload does to previously indexed content.
type IndexPolicy string

const (
	// IndexPolicyReplace swaps the whole index for the new upload.
	IndexPolicyReplace IndexPolicy = "replace"

	// IndexPolicyAppend adds the new upload to the existing index.
	IndexPolicyAppend IndexPolicy = "append"
)

// IsValid returns true if the policy is recognised.
func (p IndexPolicy) IsValid() bool {
	return p == IndexPolicyReplace || p == IndexPolicyAppend
}

// String returns the string representation.
func (p IndexPolicy) String() string {
	return string(p)
}

// IndexOptions controls one Process call.
type IndexOptions struct {
	// Policy overrides the configured policy when set.
	Policy IndexPolicy
}

// DocumentFailure records a document that could not be extracted or chunked.
type DocumentFailure struct {
	SourceID string
	Err      error
}

// Error implements error.
func (f DocumentFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.SourceID, f.Err)
}

// IndexReport describes the outcome of a successful build.
type IndexReport struct {
	Policy    IndexPolicy
	Documents int
	Chunks    int
	Failures  []DocumentFailure

	// MemoryCleared is true when the build replaced the index and reset the conversation.
	MemoryCleared bool
}
