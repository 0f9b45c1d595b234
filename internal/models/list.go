package models

// ListMetadata describes one page of a list response.
type ListMetadata struct {
	Count int   `json:"count" example:"25"`
	Skip  int   `json:"skip" example:"0"`
	Limit int   `json:"limit" example:"25"`
	Total int64 `json:"total" example:"30"`
}

// ListResponse is the envelope returned by every list endpoint. Results
// are in store order; an empty page is a normal 200, not an error.
type ListResponse[T any] struct {
	Metadata ListMetadata `json:"metadata"`
	Results  []T          `json:"results"`
}

func NewListResponse[T any](results []T, skip, limit int, total int64) ListResponse[T] {
	if results == nil {
		results = []T{}
	}
	return ListResponse[T]{
		Metadata: ListMetadata{
			Count: len(results),
			Skip:  skip,
			Limit: limit,
			Total: total,
		},
		Results: results,
	}
}
