// Package proto defines the message types exchanged over the internal
// JSON-over-TCP RPC layer (see pkg/rpc). Field names use snake_case JSON
// tags to match the public HTTP API.
package proto

// Method names served by the engine RPC server.
const (
	MethodScore    = "Engine.Score"
	MethodAlign    = "Engine.Align"
	MethodDistance = "Engine.Distance"
)

// Distance granularity.
const (
	UnitChars = "chars"
	UnitWords = "words"
)

// ScoreRequest is the input to Engine.Score.
type ScoreRequest struct {
	Target    string `json:"target"`
	Candidate string `json:"candidate"`
}

// ScoreResponse is the output of Engine.Score.
type ScoreResponse struct {
	Score float64 `json:"score"`
}

// AlignRequest is the input to Engine.Align.
type AlignRequest struct {
	Target    string `json:"target"`
	Candidate string `json:"candidate"`
}

// WordResult is one classified candidate word.
type WordResult struct {
	Status    string `json:"status"`
	Word      string `json:"word"`
	Reference string `json:"reference,omitempty"`
}

// AlignResponse is the output of Engine.Align.
type AlignResponse struct {
	Words   []WordResult `json:"words"`
	Missing int          `json:"missing"`
}

// DistanceRequest is the input to Engine.Distance. Unit is "chars" (the
// default) or "words".
type DistanceRequest struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Unit string `json:"unit,omitempty"`
}

// DistanceResponse is the output of Engine.Distance.
type DistanceResponse struct {
	Distance int `json:"distance"`
}
