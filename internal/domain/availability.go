package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// TimeRange is a wall-clock window within one day, "HH:MM" 24h.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DayAvailability struct {
	Enabled bool        `json:"enabled"`
	Ranges  []TimeRange `json:"ranges"`
}

// WeeklyAvailability holds one rule per weekday, in the therapist's timezone.
type WeeklyAvailability struct {
	Monday    DayAvailability `json:"monday"`
	Tuesday   DayAvailability `json:"tuesday"`
	Wednesday DayAvailability `json:"wednesday"`
	Thursday  DayAvailability `json:"thursday"`
	Friday    DayAvailability `json:"friday"`
	Saturday  DayAvailability `json:"saturday"`
	Sunday    DayAvailability `json:"sunday"`
}

// DefaultAvailability is Monday to Friday 09:00-17:00.
func DefaultAvailability() WeeklyAvailability {
	workday := func() DayAvailability {
		return DayAvailability{Enabled: true, Ranges: []TimeRange{{Start: "09:00", End: "17:00"}}}
	}
	return WeeklyAvailability{
		Monday:    workday(),
		Tuesday:   workday(),
		Wednesday: workday(),
		Thursday:  workday(),
		Friday:    workday(),
		Saturday:  DayAvailability{Ranges: []TimeRange{}},
		Sunday:    DayAvailability{Ranges: []TimeRange{}},
	}
}

func (w WeeklyAvailability) Day(d time.Weekday) DayAvailability {
	switch d {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

func (w *WeeklyAvailability) days() []*DayAvailability {
	return []*DayAvailability{&w.Monday, &w.Tuesday, &w.Wednesday, &w.Thursday, &w.Friday, &w.Saturday, &w.Sunday}
}

// Normalize validates every range, sorts ranges by start and clears the
// ranges of disabled days.
func (w WeeklyAvailability) Normalize() (WeeklyAvailability, error) {
	out := w
	for _, d := range out.days() {
		if !d.Enabled {
			d.Ranges = []TimeRange{}
			continue
		}
		ranges := make([]TimeRange, len(d.Ranges))
		copy(ranges, d.Ranges)

		type span struct{ start, end int }
		spans := make([]span, len(ranges))
		for i, r := range ranges {
			s, err := ParseClock(r.Start)
			if err != nil {
				return WeeklyAvailability{}, err
			}
			e, err := ParseClock(r.End)
			if err != nil {
				return WeeklyAvailability{}, err
			}
			if s >= e {
				return WeeklyAvailability{}, ErrInvalidTimeRange
			}
			spans[i] = span{s, e}
		}

		idx := make([]int, len(ranges))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return spans[idx[a]].start < spans[idx[b]].start })

		sorted := make([]TimeRange, 0, len(ranges))
		for i, j := range idx {
			if i > 0 && spans[j].start < spans[idx[i-1]].end {
				return WeeklyAvailability{}, ErrOverlappingRanges
			}
			sorted = append(sorted, ranges[j])
		}
		d.Ranges = sorted
	}
	return out, nil
}

// ParseClock turns "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, ErrInvalidTimeRange
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Slot is a bookable half-open interval [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

type SlotQuery struct {
	// From is any instant on the first calendar day; only its date in the
	// location is used.
	From     time.Time
	Days     int
	Duration time.Duration
	Now      time.Time
	// Busy holds the therapist's active appointments.
	Busy []Slot
}

// ComputeSlots expands the weekly rules into concrete slots. A disabled day
// yields nothing; slots run back to back from each range start while they
// end within the range. Past slots and slots overlapping Busy are dropped.
func ComputeSlots(w WeeklyAvailability, loc *time.Location, q SlotQuery) []Slot {
	if q.Duration <= 0 || q.Days <= 0 {
		return nil
	}
	step := int(q.Duration / time.Minute)
	y, m, d := q.From.In(loc).Date()

	var out []Slot
	for i := 0; i < q.Days; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		rule := w.Day(day.Weekday())
		if !rule.Enabled {
			continue
		}
		for _, r := range rule.Ranges {
			rs, err1 := ParseClock(r.Start)
			re, err2 := ParseClock(r.End)
			if err1 != nil || err2 != nil {
				continue
			}
			for at := rs; at+step <= re; at += step {
				start := time.Date(day.Year(), day.Month(), day.Day(), 0, at, 0, 0, loc)
				slot := Slot{Start: start, End: start.Add(q.Duration)}
				if !slot.Start.After(q.Now) || overlapsAny(slot, q.Busy) {
					continue
				}
				out = append(out, slot)
			}
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Start.Before(out[b].Start) })
	return out
}

// Covers reports whether [start, end) lies inside a single enabled range of
// the day start falls on, in loc.
func (w WeeklyAvailability) Covers(start, end time.Time, loc *time.Location) bool {
	ls := start.In(loc)
	rule := w.Day(ls.Weekday())
	if !rule.Enabled {
		return false
	}
	sMin := ls.Hour()*60 + ls.Minute()
	eMin := sMin + int(end.Sub(start)/time.Minute)
	for _, r := range rule.Ranges {
		rs, err1 := ParseClock(r.Start)
		re, err2 := ParseClock(r.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if rs <= sMin && eMin <= re {
			return true
		}
	}
	return false
}

func overlapsAny(s Slot, busy []Slot) bool {
	for _, b := range busy {
		if s.Overlaps(b) {
			return true
		}
	}
	return false
}

// ClampDays bounds a requested window to 1..max days.
func ClampDays(days, max int) int {
	if max <= 0 {
		max = 31
	}
	switch {
	case days < 1:
		return 1
	case days > max:
		return max
	default:
		return days
	}
}

// ValidDuration reports whether minutes is one of the allowed booking lengths.
func ValidDuration(minutes int, allowed []int) bool {
	return lo.Contains(allowed, minutes)
}

func (r TimeRange) String() string { return fmt.Sprintf("%s-%s", r.Start, r.End) }
