package appointment

import (
	"sort"
	"strings"
	"time"
)

// timeLayouts are the timestamp shapes the backend has been seen to send.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTime parses a backend timestamp in loc. Timestamps carrying their
// own offset are converted to loc. ok is false for empty or malformed input.
func ParseTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Time parses a.ScheduledAt in loc.
func (a Appointment) Time(loc *time.Location) (time.Time, bool) {
	return ParseTime(a.ScheduledAt, loc)
}

func keep(list []Appointment, pred func(Appointment) bool) []Appointment {
	out := make([]Appointment, 0, len(list))
	for _, a := range list {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// sameDay compares calendar days in b's location.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Today returns the scheduled appointments whose date falls on now's
// calendar day. Records with unparseable dates are dropped.
func Today(list []Appointment, now time.Time) []Appointment {
	return keep(list, func(a Appointment) bool {
		if a.Status != StatusScheduled {
			return false
		}
		t, ok := a.Time(now.Location())
		return ok && sameDay(t, now)
	})
}

// Upcoming returns the scheduled appointments strictly after now.
func Upcoming(list []Appointment, now time.Time) []Appointment {
	return keep(list, func(a Appointment) bool {
		if a.Status != StatusScheduled {
			return false
		}
		t, ok := a.Time(now.Location())
		return ok && t.After(now)
	})
}

// Past returns completed, missed and cancelled appointments regardless of
// their date.
func Past(list []Appointment) []Appointment {
	return keep(list, func(a Appointment) bool {
		return a.Status.IsClosed()
	})
}

// ByStatus returns the appointments with exactly status s. StatusAll (or
// the empty status) returns a copy of list.
func ByStatus(list []Appointment, s Status) []Appointment {
	if s == StatusAll || s == "" {
		return keep(list, func(Appointment) bool { return true })
	}
	return keep(list, func(a Appointment) bool {
		return a.Status == s
	})
}

// Apply derives the list for c. An unknown view behaves like ViewAll.
func Apply(list []Appointment, now time.Time, c Criteria) []Appointment {
	var out []Appointment
	switch c.View {
	case ViewToday:
		out = Today(list, now)
	case ViewUpcoming:
		out = Upcoming(list, now)
	case ViewPast:
		out = Past(list)
	default:
		out = list
	}
	return ByStatus(out, c.Status)
}

// SortByDate returns a copy of list ordered by scheduled time. The sort is
// stable and records with unparseable dates go last in their original order.
func SortByDate(list []Appointment, ascending bool, loc *time.Location) []Appointment {
	type keyed struct {
		a  Appointment
		t  time.Time
		ok bool
	}
	items := make([]keyed, len(list))
	for i, a := range list {
		t, ok := a.Time(loc)
		items[i] = keyed{a: a, t: t, ok: ok}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		if !items[i].ok {
			return false
		}
		if ascending {
			return items[i].t.Before(items[j].t)
		}
		return items[i].t.After(items[j].t)
	})
	out := make([]Appointment, len(items))
	for i, it := range items {
		out[i] = it.a
	}
	return out
}

// ParseView maps a query value onto a View, defaulting to ViewAll.
func ParseView(s string) View {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewToday:
		return ViewToday
	case ViewUpcoming:
		return ViewUpcoming
	case ViewPast, "history":
		return ViewPast
	default:
		return ViewAll
	}
}
