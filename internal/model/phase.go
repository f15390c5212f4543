package model

import "time"

// Phases.
const (
	PhaseDraft     = "draft"
	PhaseScheduled = "scheduled"
	PhaseLive      = "live"
	PhaseEnded     = "ended"
)

// Date and clock layouts accepted in auction schedules.
const (
	DateLayout = "2006-01-02"
	clockShort = "15:04"
	clockLong  = "15:04:05"
)

// Phase computes the lifecycle phase of an auction at now. A Draft auction is
// always draft. A live or ended override wins over the schedule. Otherwise the
// phase follows the auction's time window, interpreted in now's location.
// Bids are accepted only in the live phase.
func Phase(a *Auction, st *AuctionState, now time.Time) string {
	if a.Status == AuctionStatusDraft {
		return PhaseDraft
	}
	if st != nil && (st.Status == StateLive || st.Status == StateEnded) {
		return st.Status
	}

	start, end, ok := a.Window(now.Location())
	if !ok || now.Before(start) {
		return PhaseScheduled
	}
	if end.IsZero() || !now.After(end) {
		return PhaseLive
	}
	return PhaseEnded
}

// Window returns the scheduled start and end of the auction in loc. end is
// zero when no end time is set. An end before the start falls on the next day.
// ok is false when the date or start time is missing or malformed.
func (a *Auction) Window(loc *time.Location) (start, end time.Time, ok bool) {
	start, ok = parseSchedule(a.Date, a.StartTime, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if a.EndTime == "" {
		return start, time.Time{}, true
	}

	end, ok = parseSchedule(a.Date, a.EndTime, loc)
	if !ok {
		return start, time.Time{}, true
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, true
}

func parseSchedule(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{clockShort, clockLong} {
		t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidSchedule reports whether the date and clock strings parse.
func ValidSchedule(date, startTime, endTime string) bool {
	if date == "" && startTime == "" && endTime == "" {
		return true
	}
	if _, ok := parseSchedule(date, startTime, time.UTC); !ok {
		return false
	}
	if endTime == "" {
		return true
	}
	_, ok := parseSchedule(date, endTime, time.UTC)
	return ok
}
