// Package codec provides the bidirectional conversion between the textual
// field values ckdb's wire protocol carries and the strongly typed values
// the in-memory store holds, as described in spec.md §4.1.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldType tags the declared type of a database field being converted.
type FieldType int

const (
	TypeSTR FieldType = iota
	TypeBigInt
	TypeInt
	TypeDouble
	TypeBlob
	TypeTV
	TypeCTV
	TypeTVS
)

// FatalFunc aborts the process. Field size mismatches are programmer
// errors (spec.md §7 stratum 1), not recoverable runtime conditions, so
// the codec never returns an error for them — it calls this instead.
// Tests substitute a function that records the call rather than exiting.
type FatalFunc func(format string, args ...interface{})

var defaultFatal FatalFunc = func(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// SetFatal overrides the process-abort hook used for programmer errors.
// Production code should wire this to logging.Fatalf; it defaults to a
// panic so a missing wire-up still fails loudly instead of silently.
func SetFatal(f FatalFunc) {
	if f != nil {
		defaultFatal = f
	}
}

func fatalf(format string, args ...interface{}) {
	defaultFatal(format, args...)
}

// TextToStr converts a textual field into a string, enforcing the
// destination's declared capacity. A value that would overflow a
// fixed-capacity destination is a structure mismatch — fatal, per
// spec.md §4.1: "size mismatch is a programmer error, not a runtime
// condition."
func TextToStr(name, text string, maxLen int) string {
	if maxLen > 0 && len(text)+1 > maxLen {
		fatalf("field %s structure size %d is smaller than value length %d", name, maxLen, len(text)+1)
		return ""
	}
	return text
}

// TextToBigInt parses a 64-bit integer field. Malformed input silently
// yields zero, matching the legacy atoll() semantics the wire protocol
// was built against.
func TextToBigInt(name, text string) int64 {
	return atoiPrefix64(text)
}

// TextToInt parses a 32-bit integer field with the same silent-zero
// semantics as TextToBigInt.
func TextToInt(name, text string) int32 {
	return int32(atoiPrefix64(text))
}

// TextToDouble parses a floating point field. Malformed input yields zero.
func TextToDouble(name, text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return v
}

// TextToBlob copies the textual value verbatim; BLOB fields are
// arbitrary owned strings with no declared capacity.
func TextToBlob(name, text string) string {
	return text
}

// atoiPrefix64 mimics C's atoll/atoi: parse an optional sign followed by
// a run of digits and stop at the first non-digit, returning 0 if no
// digits are found at all. This is deliberately more permissive than
// strconv.ParseInt, which rejects any trailing garbage.
func atoiPrefix64(s string) int64 {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < n && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var v int64
	for i < n && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + int64(s[i]-'0')
		i++
	}
	if i == start {
		return 0
	}
	if neg {
		v = -v
	}
	return v
}

// StrToText renders a string field back to its canonical textual form.
// STR fields have no special rendering; this exists for symmetry with
// the other DataToText helpers.
func StrToText(v string) string { return v }

// BigIntToText renders a 64-bit integer field.
func BigIntToText(v int64) string { return strconv.FormatInt(v, 10) }

// IntToText renders a 32-bit integer field.
func IntToText(v int32) string { return strconv.FormatInt(int64(v), 10) }

// DoubleToText renders a double with ckdb's default precision (six
// fractional digits, matching C's default "%f" formatting). This is why
// spec.md §8 excludes DOUBLE from the round-trip invariant: values with
// more than six significant fractional digits lose precision.
func DoubleToText(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// BlobToText renders a BLOB field verbatim.
func BlobToText(v string) string { return v }

var dateTZPattern = regexp.MustCompile(
	`^(\d+)-(\d+)-(\d+) (\d+):(\d+):(\d+)(?:\.(\d+))?(?:([+-])(\d+)(?::(\d+))?)?$`)
