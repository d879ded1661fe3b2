package model

// Focus is the service line a lead's construction stage calls for.
type Focus string

const (
	FocusPlanReview         Focus = "Plan Review"
	FocusBothInspectionLead Focus = "Both (Inspection Lead)"
	FocusInspection         Focus = "Inspection"
	FocusInspectionImminent Focus = "Inspection (Imminent)"
	FocusInspectionActive   Focus = "Inspection (Active)"
	FocusBoth               Focus = "Both"
)

// IsPlanReview reports whether the lead is early enough that plan review
// is the service to pitch.
func (f Focus) IsPlanReview() bool {
	return f == FocusPlanReview
}
