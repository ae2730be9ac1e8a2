// Package transfer implements the per-request parameter arena of
// spec.md §4.5: a bag of named string values received from a client
// request, with required/optional validation helpers against a POSIX
// extended regular expression and a minimum length.
package transfer

import "regexp"

// Arena is a per-request bag of {name -> string}. Unlike the original
// C implementation's inline/heap-allocated string distinction (an
// allocator optimisation with no observable behaviour difference in Go,
// where strings are already immutable and garbage collected), Arena
// just holds a plain map; "materialised" lookup is simply a map read.
type Arena struct {
	values map[string]string
}

// New builds an empty Arena.
func New() *Arena {
	return &Arena{values: make(map[string]string)}
}

// Set stores value under name, overwriting any prior value.
func (a *Arena) Set(name, value string) {
	a.values[name] = value
}

// Get returns the materialised value for name, and whether it was present.
func (a *Arena) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Result is the outcome of a validation helper: Value and OK on
// success, or a terse Reply string of the form "failed.<kind> <name>"
// on failure (spec.md §4.5, §7 stratum 2).
type Result struct {
	Value string
	OK    bool
	Reply string
}

// Optional validates an optional parameter: absence is not a failure.
// If present but shorter than minLen, or not matching the POSIX
// extended regular expression pattern, validation fails with a
// "failed.short"/"failed.invalid" reply. An uncompilable pattern fails
// with "failed.REG" — a configuration error, not a caller error, but
// still handled as stratum 2 rather than aborting the process, since a
// single bad option shouldn't take down a connector session.
func Optional(a *Arena, name string, minLen int, pattern string) Result {
	v, present := a.Get(name)
	if !present {
		return Result{OK: false}
	}
	return validate(name, v, minLen, pattern)
}

// Required validates a required parameter: absence itself is a failure,
// reported as "failed.missing <name>".
func Required(a *Arena, name string, minLen int, pattern string) Result {
	v, present := a.Get(name)
	if !present {
		return Result{Reply: "failed.missing " + name}
	}
	return validate(name, v, minLen, pattern)
}

func validate(name, value string, minLen int, pattern string) Result {
	if len(value) < minLen {
		return Result{Reply: "failed.short " + name}
	}
	if pattern == "" {
		return Result{Value: value, OK: true}
	}
	re, err := regexp.CompilePOSIX(pattern)
	if err != nil {
		return Result{Reply: "failed.REG " + name}
	}
	if !re.MatchString(value) {
		return Result{Reply: "failed.invalid " + name}
	}
	return Result{Value: value, OK: true}
}
