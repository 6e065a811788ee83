package domain

import "time"

// Transition records one booking status change as observed by a polling
// session. From is empty for the first observation of a booking.
type Transition struct {
	ID            string
	SessionID     string
	BookingID     string
	From          BookingStatus
	To            BookingStatus
	PaymentStatus PaymentStatus
	ObservedAt    time.Time
}
