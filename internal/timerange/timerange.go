// Package timerange resolves user-supplied query windows into canonical
// time ranges for the aggregation layer.
package timerange

import (
	"fmt"
	"time"
)

// Granularity is the bucket width used to group time-series aggregates.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

const (
	defaultWindow = 30 * 24 * time.Hour
	maxSpan       = 365 * 24 * time.Hour
)

// Query holds the raw query parameters as supplied by the caller. Empty
// strings mean "not provided".
type Query struct {
	From        string
	To          string
	Timezone    string
	Granularity string
}

// TimeRange is the canonical, validated query window. Constructed per
// request, never persisted.
type TimeRange struct {
	From        time.Time
	To          time.Time
	Timezone    string
	Granularity Granularity
}

// Validate checks the raw query and returns all violations as human-readable
// reasons. An empty slice means the query is acceptable.
func Validate(q Query) []string {
	var errs []string

	from, fromOK := parseInstant(q.From)
	to, toOK := parseInstant(q.To)

	if q.From != "" && !fromOK {
		errs = append(errs, fmt.Sprintf("from is not a valid ISO-8601 date-time: %s", q.From))
	}
	if q.To != "" && !toOK {
		errs = append(errs, fmt.Sprintf("to is not a valid ISO-8601 date-time: %s", q.To))
	}
	if fromOK && toOK && q.From != "" && q.To != "" {
		if from.After(to) {
			errs = append(errs, "from must be before or equal to to")
		} else if to.Sub(from) > maxSpan {
			errs = append(errs, "time range must not exceed 365 days")
		}
	}
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("timezone is not a valid IANA zone: %s", q.Timezone))
		}
	}
	if q.Granularity != "" {
		switch Granularity(q.Granularity) {
		case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		default:
			errs = append(errs, fmt.Sprintf("granularity must be one of hour, day, week, month: %s", q.Granularity))
		}
	}

	return errs
}

// Resolve applies defaults and produces the canonical range: from defaults to
// 30 days ago, to defaults to now, timezone to UTC and granularity to day.
// Resolve assumes Validate reported no errors; unparseable values degrade to
// defaults.
func Resolve(q Query) TimeRange {
	now := time.Now().UTC()

	to := now
	if v, ok := parseInstant(q.To); ok {
		to = v
	}
	from := to.Add(-defaultWindow)
	if v, ok := parseInstant(q.From); ok {
		from = v
	}

	tz := "UTC"
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err == nil {
			tz = q.Timezone
		}
	}

	granularity := GranularityDay
	switch Granularity(q.Granularity) {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		granularity = Granularity(q.Granularity)
	}

	return TimeRange{From: from, To: to, Timezone: tz, Granularity: granularity}
}

// parseInstant accepts RFC 3339 date-times and bare dates.
func parseInstant(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
