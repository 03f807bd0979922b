package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

// NewPage normalizes the given values, page numbers start from 1 and the
// size is capped to MaxPageSize.
func NewPage(pageNumber, pageSize int) Page {
	pNumber := 1
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := DefaultPageSize
	if pageSize > 0 {
		pSize = pageSize
	}
	if pSize > MaxPageSize {
		pSize = MaxPageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Bounds returns the slice bounds of the page for a list of total items.
func (p Page) Bounds(total int) (int, int) {
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return start, end
}
