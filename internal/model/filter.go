package model

// ListFilter is the offset pagination contract for list queries.
type ListFilter struct {
	Page   int
	Limit  int
	Status *Status
}
