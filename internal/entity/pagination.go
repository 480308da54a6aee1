package entity

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

type PaginationInput struct {
	Limit  int
	Offset int
}

// NewPaginationInput clamps limit into (0, maxPageLimit] and offset to >= 0.
func NewPaginationInput(limit int, offset int) *PaginationInput {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	return &PaginationInput{
		Limit:  limit,
		Offset: offset,
	}
}
