package domain

// ListFilterType represents the field a booking list is filtered on.
type ListFilterType string

const (
	FilterPickup  ListFilterType = "pickup"
	FilterDropoff ListFilterType = "dropoff"
	FilterDate    ListFilterType = "date"
	FilterStatus  ListFilterType = "status"
)

// DefaultPageSize is the fixed page size of the booking list view.
const DefaultPageSize = 10

// ListFilter describes one page of a filtered booking collection request.
type ListFilter struct {
	Type ListFilterType
	Term string
	Page int
	Size int
}

// BookingPage is one page of a booking collection as returned by the
// Booking Store. Content preserves server-returned order; that order is
// the tie-break when scanning for an active booking.
type BookingPage struct {
	Content       []*Booking `json:"content"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int        `json:"totalElements"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
}

// ValidListFilterType reports whether t is a known filter type.
func ValidListFilterType(t ListFilterType) bool {
	switch t {
	case FilterPickup, FilterDropoff, FilterDate, FilterStatus:
		return true
	}
	return false
}
