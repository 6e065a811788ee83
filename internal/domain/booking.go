package domain

import "time"

// BookingStatus represents the server-owned status of a booking.
// Values match the Booking Store wire format.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusStarted   BookingStatus = "started"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus represents the payment state of a completed booking.
// It is only meaningful once BookingStatus is "completed".
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Booking is a read-only, periodically refreshed copy of a booking record
// owned by the remote Booking Store. The gateway never mutates it locally;
// every observed change comes from a fresh fetch.
type Booking struct {
	ID             string        `json:"id"`
	BookingStatus  BookingStatus `json:"booking_status"`
	PaymentStatus  PaymentStatus `json:"payment_status,omitempty"`
	PickupAddress  string        `json:"pickup_address"`
	DropoffAddress string        `json:"dropoff_address"`
	FareAmount     *float64      `json:"fare_amount,omitempty"` // absent until computed server-side
	DriverName     string        `json:"driver_name,omitempty"`
	RiderName      string        `json:"rider_name,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	StartTime      *time.Time    `json:"start_time,omitempty"`
}

// IsActive reports whether the booking should pull a list view into the
// tracking view. The canonical active set is {accepted, started}: a pending
// booking stays on the list until a driver is matched.
func (b *Booking) IsActive() bool {
	return b.BookingStatus == BookingStatusAccepted || b.BookingStatus == BookingStatusStarted
}

// IsTerminal reports whether no further client action is meaningful:
// the booking is cancelled, or completed with the payment settled.
func (b *Booking) IsTerminal() bool {
	switch b.BookingStatus {
	case BookingStatusCancelled:
		return true
	case BookingStatusCompleted:
		return b.PaymentStatus == PaymentStatusCompleted
	default:
		return false
	}
}

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusStarted,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}
