// Package report holds the uniform result of every evaluator: structured
// data, a score between 0 and 100, and remediation recommendations.
//
// Results are encoded as JSON with encoding/json, or as MessagePack with the
// same keys and layout through MarshalMsg.
package report

import (
	"encoding/json"
	"slices"

	"github.com/tinylib/msgp/msgp"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Data is the evaluator-specific part of a Result. Implementations are JSON
// encodable and write the same document as MessagePack.
type Data interface {
	msgp.Marshaler
}

// Result is the outcome of a single evaluation.
type Result struct {
	Data            Data     `json:"data"`
	Score           int      `json:"score"`
	Recommendations []string `json:"recommendations"`
}

var _ msgp.Marshaler = Result{}

// New returns a result with the score clamped to [MinScore, MaxScore].
// At least one recommendation is required.
func New(data Data, score int, recommendations ...string) Result {
	if len(recommendations) == 0 {
		panic("report: result without recommendations")
	}
	return Result{
		Data:            data,
		Score:           Clamp(score),
		Recommendations: slices.Clone(recommendations),
	}
}

// Clamp limits score to [MinScore, MaxScore].
func Clamp(score int) int {
	return min(max(score, MinScore), MaxScore)
}

// JSON returns the JSON encoding of the result.
func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// MarshalMsg appends the MessagePack encoding of the result to b.
func (r Result) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 3)
	b = msgp.AppendString(b, "data")
	if r.Data == nil {
		b = msgp.AppendNil(b)
	} else {
		var err error
		b, err = r.Data.MarshalMsg(b)
		if err != nil {
			return b, err
		}
	}
	b = msgp.AppendString(b, "score")
	b = msgp.AppendInt(b, r.Score)
	b = msgp.AppendString(b, "recommendations")
	b = AppendStrings(b, r.Recommendations)
	return b, nil
}

// ErrorData is the data of a failed evaluation.
type ErrorData struct {
	Error string `json:"error"`
}

// MarshalMsg implements msgp.Marshaler.
func (d ErrorData) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 1)
	b = msgp.AppendString(b, "error")
	b = msgp.AppendString(b, d.Error)
	return b, nil
}

// Failure returns the result for an evaluation that could not complete.
func Failure(err error) Result {
	msg := err.Error()
	return New(ErrorData{Error: msg}, 0, "Test failed: "+msg)
}

// ErrorObject is returned instead of a Result when no evaluation could be
// selected, e.g. for an unknown test type.
type ErrorObject struct {
	Error string `json:"error"`
}

// MarshalMsg implements msgp.Marshaler.
func (e ErrorObject) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 1)
	b = msgp.AppendString(b, "error")
	b = msgp.AppendString(b, e.Error)
	return b, nil
}
