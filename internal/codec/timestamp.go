package codec

import (
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a (seconds, microseconds) pair in UTC, matching spec.md
// §3.4's wire representation of every createdate/expirydate field.
type Timestamp struct {
	Sec  int64
	USec int64
}

// DefaultExpiry is the far-future sentinel marking a row as current
// (spec.md §3.1). June 6, 6666 at midnight UTC, matching the value the
// pool accounting core has used since its first C implementation.
var DefaultExpiry = Timestamp{
	Sec:  time.Date(6666, time.June, 6, 0, 0, 0, 0, time.UTC).Unix(),
	USec: 0,
}

// CompareExpiry is the clamp threshold from spec.md §3.4: any parsed
// timestamp at or beyond this instant is canonicalised to DefaultExpiry
// instead of being stored verbatim, so "currentness" comparisons can use
// exact equality against DefaultExpiry rather than a fuzzy range check.
// Set one day before DefaultExpiry to absorb timezone-offset arithmetic
// performed during parsing without the result sliding past the sentinel
// in the wrong direction.
var CompareExpiry = Timestamp{
	Sec:  DefaultExpiry.Sec - 86400,
	USec: 0,
}

// IsDefaultExpiry reports whether t is the current-row sentinel.
func (t Timestamp) IsDefaultExpiry() bool {
	return t.Sec == DefaultExpiry.Sec && t.USec == DefaultExpiry.USec
}

// Compare orders two timestamps, earliest first.
func (t Timestamp) Compare(o Timestamp) int {
	if t.Sec != o.Sec {
		if t.Sec < o.Sec {
			return -1
		}
		return 1
	}
	if t.USec != o.USec {
		if t.USec < o.USec {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether t sorts strictly before o.
func (t Timestamp) Before(o Timestamp) bool { return t.Compare(o) < 0 }

// TextToTV parses spec.md §4.1's TV format:
// "YYYY-MM-DD HH:MM:SS[.uuuuuu][±HH[:MM]]".
//
// Parsing takes the calendar fields as UTC wall-clock values, converts to
// epoch seconds, then applies the timezone offset with the sign
// *inverted* — because the wall-clock fields were read as if already UTC,
// undoing that requires subtracting what a "+" offset would otherwise
// add, and vice versa. A fractional-second component is rounded to
// microseconds. Results at or beyond CompareExpiry clamp to DefaultExpiry.
func TextToTV(name, text string) (Timestamp, error) {
	m := dateTZPattern.FindStringSubmatch(text)
	if m == nil {
		return Timestamp{}, fmt.Errorf("field %s: unhandled date %q", name, text)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	var usec int64
	if m[7] != "" {
		frac := m[7]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		for len(frac) < 6 {
			frac += "0"
		}
		v, _ := strconv.ParseInt(frac, 10, 64)
		usec = v
	}

	sign := m[8]
	tzHour, _ := strconv.Atoi(m[9])
	tzMin := 0
	if m[10] != "" {
		tzMin, _ = strconv.Atoi(m[10])
	}

	tim := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC).Unix()

	if tim > CompareExpiry.Sec {
		return DefaultExpiry, nil
	}

	tzOffsetSec := int64(tzHour*60+tzMin) * 60
	if sign == "-" {
		tim += tzOffsetSec
	} else {
		tim -= tzOffsetSec
	}

	return Timestamp{Sec: tim, USec: usec}, nil
}

// TextToCTV parses spec.md §4.1's compact "sec[,nsec]" form. nsec is
// nanoseconds and is rounded to microseconds. A sec value at or beyond
// CompareExpiry clamps to DefaultExpiry. A value with no parseable
// leading integer yields a zero timestamp (the caller tests tv_sec==0 for
// failure, per the original protocol).
func TextToCTV(name, text string) Timestamp {
	var sec, nsec int64
	n, _ := fmt.Sscanf(text, "%d,%d", &sec, &nsec)
	if n < 1 {
		return Timestamp{}
	}
	ts := Timestamp{Sec: sec}
	if n > 1 {
		ts.USec = (nsec + 500) / 1000
	}
	if ts.Sec >= CompareExpiry.Sec {
		return DefaultExpiry
	}
	return ts
}

// TVToText renders a TV field as "YYYY-MM-DD HH:MM:SS.uuuuuu+00" in UTC.
func TVToText(t Timestamp) string {
	tm := time.Unix(t.Sec, 0).UTC()
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d+00",
		tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), t.USec)
}

// CTVToText renders a CTV field as "sec,usec".
func CTVToText(t Timestamp) string {
	return fmt.Sprintf("%d,%d", t.Sec, t.USec)
}

// TVSToText renders a TVS field: seconds only, no sub-second component.
func TVSToText(t Timestamp) string {
	return strconv.FormatInt(t.Sec, 10)
}
