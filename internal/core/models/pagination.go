package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultSortField = "createdAt"
)

// PageRequest carries page/size/sort parameters for history queries.
// Page is 0-based.
type PageRequest struct {
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// Normalize coerces invalid values to defaults instead of failing:
// отрицательная страница → 0, размер вне диапазона → значение по умолчанию.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortField
	}
	if p.SortDirection != SortAsc && p.SortDirection != SortDesc {
		p.SortDirection = SortDesc
	}
	return p
}

// Offset returns the row offset for the normalized request.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// TransactionPage is the page envelope returned to history clients.
type TransactionPage struct {
	Content          []*Transaction `json:"content"`
	TotalElements    int64          `json:"totalElements"`
	TotalPages       int            `json:"totalPages"`
	First            bool           `json:"first"`
	Last             bool           `json:"last"`
	NumberOfElements int            `json:"numberOfElements"`
}

// NewTransactionPage builds the envelope for a page of content.
// totalPages = ceil(totalElements/size); a page past the end yields empty
// content with correct metadata.
func NewTransactionPage(content []*Transaction, totalElements int64, req PageRequest) *TransactionPage {
	req = req.Normalize()
	if content == nil {
		content = []*Transaction{}
	}

	totalPages := int((totalElements + int64(req.Size) - 1) / int64(req.Size))

	return &TransactionPage{
		Content:          content,
		TotalElements:    totalElements,
		TotalPages:       totalPages,
		First:            req.Page == 0,
		Last:             req.Page >= totalPages-1,
		NumberOfElements: len(content),
	}
}
