package schedule

import "time"

// WeeklyPlan maps each weekday to the topic designated for repetition on
// that day. An empty map means no practice plan is configured.
type WeeklyPlan map[time.Weekday]string

// NextTopicDay scans forward from fromDate (inclusive), up to HorizonDays,
// for the first calendar date whose weekday has topic as its repetition
// topic. When the plan is empty or nothing matches within the horizon it
// falls back to fromDate + FallbackDays, the system's historical default
// cadence.
func (p Params) NextTopicDay(plan WeeklyPlan, topic string, fromDate time.Time) time.Time {
	start := DayStart(fromDate)
	if len(plan) > 0 {
		for i := 0; i < p.HorizonDays; i++ {
			day := AddDays(start, i)
			if plan[day.Weekday()] == topic {
				return day
			}
		}
	}
	return AddDays(start, p.FallbackDays)
}

// NextTopicDays returns up to count future dates, scanning count*7 days
// forward from fromDate (inclusive), on which topic is the repetition
// topic. It returns nil when no practice plan exists; callers are
// responsible for their own fallback in that case.
func (p Params) NextTopicDays(plan WeeklyPlan, topic string, count int, fromDate time.Time) []time.Time {
	if len(plan) == 0 || count <= 0 {
		return nil
	}

	start := DayStart(fromDate)
	var days []time.Time
	maxDays := count * 7
	for i := 0; i < maxDays && len(days) < count; i++ {
		day := AddDays(start, i)
		if plan[day.Weekday()] == topic {
			days = append(days, day)
		}
	}
	return days
}

// DistributionSlots assigns a target date to each of n overflow items,
// spread evenly across the given topic days: ceil(n/len(days)) items per
// day, with any remainder clamped to the last day. When days is empty the
// items are spread across the fallback window starting FallbackWindowStart
// days after fromDate, so nothing is ever dropped without a concrete
// future date.
func (p Params) DistributionSlots(n int, days []time.Time, fromDate time.Time) []time.Time {
	if n <= 0 {
		return nil
	}

	slots := make([]time.Time, n)
	if len(days) == 0 {
		start := DayStart(fromDate)
		for i := 0; i < n; i++ {
			slots[i] = AddDays(start, p.FallbackWindowStart+i%p.FallbackWindowDays)
		}
		return slots
	}

	perDay := (n + len(days) - 1) / len(days)
	for i := 0; i < n; i++ {
		dayIndex := i / perDay
		if dayIndex >= len(days) {
			dayIndex = len(days) - 1
		}
		slots[i] = DayStart(days[dayIndex])
	}
	return slots
}
