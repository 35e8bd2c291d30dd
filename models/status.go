package models

// Status is the lifecycle label of a race record.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusIntendToGo Status = "intend_to_go"
	StatusCompleted  Status = "completed"
	StatusUndecided  Status = "undecided"
	StatusCancelled  Status = "cancelled"
	StatusCouldNotGo Status = "could_not_go"
)

// AllStatuses lists every status in canonical order.
var AllStatuses = []Status{
	StatusRegistered,
	StatusIntendToGo,
	StatusCompleted,
	StatusUndecided,
	StatusCancelled,
	StatusCouldNotGo,
}

// ParseStatus returns the status named by s and whether it exists.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusIntendToGo, StatusCompleted,
		StatusUndecided, StatusCancelled, StatusCouldNotGo:
		return true
	}
	return false
}

// IncursCost reports whether the race price was paid and not refunded.
func (s Status) IncursCost() bool {
	switch s {
	case StatusRegistered, StatusCompleted, StatusCouldNotGo:
		return true
	}
	return false
}

// CountsDistance reports whether the race distance was actually run.
func (s Status) CountsDistance() bool {
	return s == StatusCompleted
}

// IsLoss reports whether the price was spent on a race that was missed.
func (s Status) IsLoss() bool {
	return s == StatusCouldNotGo
}

// IsUpcoming reports whether a future race with this status is still on the calendar.
func (s Status) IsUpcoming() bool {
	switch s {
	case StatusRegistered, StatusIntendToGo, StatusUndecided:
		return true
	}
	return false
}
