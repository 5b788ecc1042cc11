package query

import "encoding/json"

// Result is one page of a search plus the total number of matches.
// count is the unpaginated size of the predicate; data is the ordered page.
type Result[T any] struct {
	data  []T
	count int64
}

// NewResult creates a Result. A nil page is normalized to an empty one.
func NewResult[T any](data []T, count int64) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{data: data, count: count}
}

func (r Result[T]) Data() []T    { return r.data }
func (r Result[T]) Count() int64 { return r.count }

// Any erases the row type.
func (r Result[T]) Any() Result[any] {
	out := make([]any, len(r.data))
	for i, d := range r.data {
		out[i] = d
	}
	return Result[any]{data: out, count: r.count}
}

type resultJSON[T any] struct {
	Data  []T   `json:"data"`
	Count int64 `json:"count"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	data := r.data
	if data == nil {
		data = []T{}
	}
	return json.Marshal(resultJSON[T]{Data: data, Count: r.count})
}
