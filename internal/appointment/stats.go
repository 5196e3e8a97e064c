package appointment

import "time"

// ComputeStats counts list for the dashboard. Today and Upcoming use the same
// status-aware rules as the Today and Upcoming views.
func ComputeStats(list []Appointment, now time.Time) Stats {
	st := Stats{
		Total:    len(list),
		Today:    len(Today(list, now)),
		Upcoming: len(Upcoming(list, now)),
	}
	for _, a := range list {
		switch a.Status {
		case StatusCompleted:
			st.Completed++
		case StatusMissed:
			st.Missed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	return st
}
