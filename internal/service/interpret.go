package service

import "bookingwatch/internal/domain"

// ActionKind classifies the interpreter's verdict on a fetched booking.
type ActionKind string

const (
	ActionContinue      ActionKind = "continue"
	ActionNavigate      ActionKind = "navigate"
	ActionPromptPayment ActionKind = "prompt_payment"
	ActionTerminate     ActionKind = "terminate"
)

// Terminate reasons.
const (
	ReasonDone      = "done"
	ReasonCancelled = "cancelled"
)

// Action tells a view what to do with a freshly fetched booking record:
// keep rendering, redirect, surface the payment flow, or stop polling and
// leave.
type Action struct {
	Kind      ActionKind
	Path      string
	BookingID string
	Reason    string
}

// Frontend route paths the gateway instructs clients to navigate to.
const (
	PathRiderTracking   = "/ride-tracking"
	PathDriverTracking  = "/driver/ride-tracking"
	PathRiderDashboard  = "/dashboard"
	PathDriverDashboard = "/driver/dashboard"
)

// TrackingPath returns the tracking view route for a role.
func TrackingPath(role domain.Role) string {
	if role == domain.RoleDriver {
		return PathDriverTracking
	}
	return PathRiderTracking
}

// DashboardPath returns the dashboard route for a role.
func DashboardPath(role domain.Role) string {
	if role == domain.RoleDriver {
		return PathDriverDashboard
	}
	return PathRiderDashboard
}

// Interpret maps a fetched booking record and the viewer's role to the
// action a tracking view must take.
//
// Rider:
//
//	pending/accepted/started          -> Continue
//	completed + payment pending       -> PromptPayment
//	completed + payment completed     -> Terminate(done)
//	cancelled                         -> Terminate(cancelled), payment ignored
//
// Driver: identical terminal conditions, but a completed booking awaiting
// payment yields Continue; the "mark payment received" affordance is an
// explicit driver action, never poll-detected.
func Interpret(booking *domain.Booking, role domain.Role) Action {
	switch booking.BookingStatus {
	case domain.BookingStatusCancelled:
		return Action{Kind: ActionTerminate, Reason: ReasonCancelled}

	case domain.BookingStatusCompleted:
		switch booking.PaymentStatus {
		case domain.PaymentStatusCompleted:
			return Action{Kind: ActionTerminate, Reason: ReasonDone}
		default:
			if role == domain.RoleRider {
				return Action{Kind: ActionPromptPayment, BookingID: booking.ID}
			}
			return Action{Kind: ActionContinue}
		}

	default:
		return Action{Kind: ActionContinue}
	}
}

// FindActive scans a fetched collection in server-returned order and
// returns the first booking that should redirect a list view into
// tracking, or nil. Server order is the documented tie-break.
func FindActive(content []*domain.Booking) *domain.Booking {
	for _, b := range content {
		if b != nil && b.IsActive() {
			return b
		}
	}
	return nil
}
