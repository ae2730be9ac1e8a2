package transfer

import "testing"

func TestOptionalAbsentIsNotFailure(t *testing.T) {
	a := New()
	r := Optional(a, "nick", 1, "")
	if r.OK || r.Reply != "" {
		t.Fatalf("expected silent absence, got %+v", r)
	}
}

func TestOptionalShort(t *testing.T) {
	a := New()
	a.Set("nick", "a")
	r := Optional(a, "nick", 3, "")
	if r.OK || r.Reply != "failed.short nick" {
		t.Fatalf("got %+v", r)
	}
}

func TestOptionalInvalidPattern(t *testing.T) {
	a := New()
	a.Set("addr", "not-hex!!")
	r := Optional(a, "addr", 1, "^[0-9a-f]+$")
	if r.OK || r.Reply != "failed.invalid addr" {
		t.Fatalf("got %+v", r)
	}
}

func TestOptionalValid(t *testing.T) {
	a := New()
	a.Set("addr", "deadbeef")
	r := Optional(a, "addr", 1, "^[0-9a-f]+$")
	if !r.OK || r.Value != "deadbeef" {
		t.Fatalf("got %+v", r)
	}
}

func TestRequiredMissing(t *testing.T) {
	a := New()
	r := Required(a, "workername", 1, "")
	if r.OK || r.Reply != "failed.missing workername" {
		t.Fatalf("got %+v", r)
	}
}

func TestRequiredBadRegex(t *testing.T) {
	a := New()
	a.Set("x", "value")
	r := Required(a, "x", 1, "(unterminated")
	if r.OK || r.Reply != "failed.REG x" {
		t.Fatalf("got %+v", r)
	}
}
