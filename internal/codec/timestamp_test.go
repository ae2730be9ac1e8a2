package codec

import "testing"

func TestTextToTVWithOffset(t *testing.T) {
	ts, err := TextToTV("x", "2014-06-05 12:34:56.789012+09:30")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Sec != 1401901496 {
		t.Fatalf("sec = %d, want 1401901496", ts.Sec)
	}
	if ts.USec != 789012 {
		t.Fatalf("usec = %d, want 789012", ts.USec)
	}

	rendered := TVToText(ts)
	want := "2014-06-05 03:04:56.789012+00"
	if rendered != want {
		t.Fatalf("rendered = %q, want %q", rendered, want)
	}
}

func TestTextToTVNegativeOffset(t *testing.T) {
	ts, err := TextToTV("x", "2020-01-01 00:00:00-05:00")
	if err != nil {
		t.Fatal(err)
	}
	// "-" offset: tim += tz; 00:00 UTC-labelled minus a -5h zone means
	// the instant is 5 hours later in UTC.
	want, _ := TextToTV("x", "2020-01-01 05:00:00+00")
	if ts.Sec != want.Sec {
		t.Fatalf("sec = %d, want %d", ts.Sec, want.Sec)
	}
}

func TestTextToTVClampsToDefaultExpiry(t *testing.T) {
	ts, err := TextToTV("x", "9999-01-01 00:00:00+00")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.IsDefaultExpiry() {
		t.Fatalf("expected clamp to DefaultExpiry, got %+v", ts)
	}
}

func TestTextToCTV(t *testing.T) {
	ts := TextToCTV("x", "1401901496,789012000")
	if ts.Sec != 1401901496 || ts.USec != 789012 {
		t.Fatalf("got %+v", ts)
	}
	if got := CTVToText(ts); got != "1401901496,789012" {
		t.Fatalf("rendered = %q", got)
	}
}

func TestTextToCTVSecondsOnly(t *testing.T) {
	ts := TextToCTV("x", "100")
	if ts.Sec != 100 || ts.USec != 0 {
		t.Fatalf("got %+v", ts)
	}
}

func TestTextToCTVMalformed(t *testing.T) {
	ts := TextToCTV("x", "not-a-ctv")
	if ts.Sec != 0 {
		t.Fatalf("expected zero timestamp on malformed CTV, got %+v", ts)
	}
}

func TestTextToCTVClampsToDefaultExpiry(t *testing.T) {
	ts := TextToCTV("x", "999999999999,0")
	if !ts.IsDefaultExpiry() {
		t.Fatalf("expected clamp, got %+v", ts)
	}
}

func TestTVSToText(t *testing.T) {
	ts := Timestamp{Sec: 12345, USec: 678}
	if got := TVSToText(ts); got != "12345" {
		t.Fatalf("got %q", got)
	}
}

func TestCompareOrdering(t *testing.T) {
	a := Timestamp{Sec: 1, USec: 0}
	b := Timestamp{Sec: 1, USec: 5}
	c := Timestamp{Sec: 2, USec: 0}
	if !a.Before(b) || !b.Before(c) || c.Before(a) {
		t.Fatal("ordering broken")
	}
}
