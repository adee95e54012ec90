package models

// SortField selects the note attribute a listing is ordered by.
type SortField string

const (
	SortByModified SortField = "modified"
	SortByCreated  SortField = "created"
	SortByTitle    SortField = "title"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderDesc SortOrder = "desc"
	OrderAsc  SortOrder = "asc"
)

// ListOptions filters and orders a note listing. The zero value lists every
// visible note by modification time, newest first.
type ListOptions struct {
	// Query is matched case-insensitively against title and body.
	Query  string
	SortBy SortField
	Order  SortOrder
}

// ParseSortField returns the SortField named s.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortByModified, SortByCreated, SortByTitle:
		return f, true
	}
	return "", false
}

// ParseSortOrder returns the SortOrder named s.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(s); o {
	case OrderAsc, OrderDesc:
		return o, true
	}
	return "", false
}
