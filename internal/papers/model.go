package papers

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Stage names double as SharedContext keys and Result slots.
const (
	StageKeyConcepts      = "key_concepts"
	StageProblemStatement = "problem_statement"
	StageFullExplanation  = "full_explanation"
	StagePseudoCode       = "pseudo_code"
)

// Job tracks one paper analysis from submission to a terminal state.
type Job struct {
	ID          string     `json:"jobId"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	ChatHistory []ChatTurn `json:"chatHistory,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Metadata is the title/authors extracted from the PDF, with fixed fallbacks
// when the document carries none.
type Metadata struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
}

// Result is the assembled output of the four analysis stages. Stage slots
// hold empty maps, never nil, when a stage produced nothing, so consumers
// can assume key presence.
type Result struct {
	Metadata         Metadata       `json:"metadata"`
	KeyConcepts      map[string]any `json:"key_concepts"`
	ProblemStatement map[string]any `json:"problem_statement"`
	FullExplanation  map[string]any `json:"full_explanation"`
	PseudoCode       map[string]any `json:"pseudo_code"`

	// Excerpt keeps a bounded slice of the paper text for downstream
	// prompts (knowledge graph); it is not part of the wire result.
	Excerpt string `json:"-"`
}

// Empty reports whether the result carries no information at all.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	return r.Metadata == Metadata{} &&
		len(r.KeyConcepts) == 0 &&
		len(r.ProblemStatement) == 0 &&
		len(r.FullExplanation) == 0 &&
		len(r.PseudoCode) == 0
}

// ChatTurn is one query/response exchange about a completed analysis.
type ChatTurn struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
}

// SharedContext accumulates stage results as the pipeline advances. Later
// stages read earlier entries; entries are never overwritten or removed.
type SharedContext map[string]map[string]any

// snapshot returns a shallow copy so each stage reads a frozen view of the
// results accumulated before it.
func (sc SharedContext) snapshot() SharedContext {
	out := make(SharedContext, len(sc))
	for k, v := range sc {
		out[k] = v
	}
	return out
}
