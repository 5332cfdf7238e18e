package dto

const (
	DefaultTake = 50
	MaxTake     = 100
)

type Page struct {
	Skip int
	Take int
}

// Normalize clamps skip to >= 0 and take to 1..MaxTake, with DefaultTake for
// a missing value.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	switch {
	case p.Take <= 0:
		p.Take = DefaultTake
	case p.Take > MaxTake:
		p.Take = MaxTake
	}

	return p
}

type PagedResult[T any] struct {
	Items   []T
	Total   int64
	Skip    int
	Take    int
	HasMore bool
}

func NewPagedResult[T any](items []T, total int64, page Page) PagedResult[T] {
	if items == nil {
		items = []T{}
	}

	return PagedResult[T]{
		Items:   items,
		Total:   total,
		Skip:    page.Skip,
		Take:    page.Take,
		HasMore: int64(page.Skip+len(items)) < total,
	}
}
