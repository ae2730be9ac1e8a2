package store

import "testing"

type widget struct {
	key int
	seq int64
	tag string
}

func widgetCmp(a, b *widget) int {
	if a.key != b.key {
		if a.key < b.key {
			return -1
		}
		return 1
	}
	return 0
}

func widgetSeq(w *widget) int64 { return w.seq }

func newWidgetTable() (*Table[widget], *Index[widget]) {
	ix := NewIndex(widgetCmp, widgetSeq)
	return NewTable(ix), ix
}

func insertWidget(tbl *Table[widget], key int, tag string) (Handle, *widget) {
	return tbl.Insert(func(_ Handle, w *widget) {
		w.key = key
		w.seq = NextSeq()
		w.tag = tag
	})
}

func TestInsertFindRemove(t *testing.T) {
	tbl, _ := newWidgetTable()
	h, rec := insertWidget(tbl, 10, "a")
	if rec.key != 10 {
		t.Fatalf("got key %d", rec.key)
	}

	probe := &widget{key: 10}
	found, ok := tbl.Find(0, probe)
	if !ok || found.tag != "a" {
		t.Fatalf("find failed: %+v %v", found, ok)
	}

	tbl.Remove(h)
	if _, ok := tbl.Find(0, probe); ok {
		t.Fatal("expected record gone after remove")
	}
	if tbl.Len() != 0 {
		t.Fatalf("len = %d, want 0", tbl.Len())
	}
}

func TestHandleReuseAfterRelease(t *testing.T) {
	tbl, _ := newWidgetTable()
	h1, _ := insertWidget(tbl, 1, "a")
	tbl.Remove(h1)
	h2, _ := insertWidget(tbl, 2, "b")
	if h2 != h1 {
		t.Fatalf("expected handle reuse, got %d then %d", h1, h2)
	}
}

func TestFindAfterAndBefore(t *testing.T) {
	tbl, _ := newWidgetTable()
	insertWidget(tbl, 10, "a")
	insertWidget(tbl, 20, "b")
	insertWidget(tbl, 30, "c")

	after, ok := tbl.FindAfter(0, &widget{key: 15})
	if !ok || after.key != 20 {
		t.Fatalf("find_after(15) = %+v", after)
	}

	before, ok := tbl.FindBefore(0, &widget{key: 25})
	if !ok || before.key != 20 {
		t.Fatalf("find_before(25) = %+v", before)
	}

	// exact match: find_after/find_before on an existing key return that
	// key itself.
	exact, ok := tbl.FindAfter(0, &widget{key: 20})
	if !ok || exact.key != 20 {
		t.Fatalf("find_after(20) = %+v", exact)
	}

	// past the end / before the start.
	if _, ok := tbl.FindAfter(0, &widget{key: 100}); ok {
		t.Fatal("expected no entry after 100")
	}
	if _, ok := tbl.FindBefore(0, &widget{key: 0}); ok {
		t.Fatal("expected no entry before 0")
	}
}

func TestNextPrev(t *testing.T) {
	tbl, _ := newWidgetTable()
	_, r1 := insertWidget(tbl, 10, "a")
	_, r2 := insertWidget(tbl, 20, "b")
	_, r3 := insertWidget(tbl, 30, "c")

	n, ok := tbl.Next(0, r1)
	if !ok || n.key != r2.key {
		t.Fatalf("next(10) = %+v", n)
	}
	n, ok = tbl.Next(0, r2)
	if !ok || n.key != r3.key {
		t.Fatalf("next(20) = %+v", n)
	}
	if _, ok := tbl.Next(0, r3); ok {
		t.Fatal("expected no next after last entry")
	}

	p, ok := tbl.Prev(0, r3)
	if !ok || p.key != r2.key {
		t.Fatalf("prev(30) = %+v", p)
	}
	if _, ok := tbl.Prev(0, r1); ok {
		t.Fatal("expected no prev before first entry")
	}
}

func TestDuplicateKeysDoNotCoalesce(t *testing.T) {
	tbl, _ := newWidgetTable()
	_, r1 := insertWidget(tbl, 5, "first")
	_, r2 := insertWidget(tbl, 5, "second")

	if tbl.Len() != 2 {
		t.Fatalf("len = %d, want 2 (no coalescing)", tbl.Len())
	}
	if tbl.IndexLen(0) != 2 {
		t.Fatalf("index len = %d, want 2", tbl.IndexLen(0))
	}

	n, ok := tbl.Next(0, r1)
	if !ok || n.tag != r2.tag {
		t.Fatalf("next of first same-key record should be the second: %+v", n)
	}
}

func TestUpdateResortsIndex(t *testing.T) {
	tbl, _ := newWidgetTable()
	h, _ := insertWidget(tbl, 10, "a")
	insertWidget(tbl, 20, "b")

	tbl.Update(h, func(w *widget) { w.key = 25 })

	if _, ok := tbl.Find(0, &widget{key: 10}); ok {
		t.Fatal("old key should no longer be findable")
	}
	found, ok := tbl.Find(0, &widget{key: 25})
	if !ok || found.tag != "a" {
		t.Fatalf("expected updated record at new key, got %+v", found)
	}

	before, ok := tbl.FindBefore(0, &widget{key: 25})
	if !ok || before.key != 25 {
		t.Fatalf("find_before(25) after resort = %+v", before)
	}
}

func TestTreeStoreListInvariant(t *testing.T) {
	tbl, _ := newWidgetTable()
	handles := make([]Handle, 0, 5)
	for i := 0; i < 5; i++ {
		h, _ := insertWidget(tbl, i, "x")
		handles = append(handles, h)
	}
	tbl.Remove(handles[2])

	if tbl.Len() != tbl.IndexLen(0) {
		t.Fatalf("store list len %d != index len %d", tbl.Len(), tbl.IndexLen(0))
	}
	if tbl.Len() != 4 {
		t.Fatalf("len = %d, want 4", tbl.Len())
	}
}

func TestWriteLockedInsertAndSupersede(t *testing.T) {
	tbl, _ := newWidgetTable()
	h, _ := insertWidget(tbl, 1, "old")

	var newHandle Handle
	tbl.WithWriteLock(func() {
		tbl.UpdateLocked(h, func(w *widget) { w.tag = "expired" })
		newHandle, _ = tbl.InsertLocked(func(_ Handle, w *widget) {
			w.key = 1
			w.seq = NextSeq()
			w.tag = "current"
		})
	})

	old, _ := tbl.Get(h)
	cur, _ := tbl.Get(newHandle)
	if old.tag != "expired" || cur.tag != "current" {
		t.Fatalf("supersede failed: old=%+v cur=%+v", old, cur)
	}
	if tbl.IndexLen(0) != 2 {
		t.Fatalf("expected both old and new rows indexed, got %d", tbl.IndexLen(0))
	}
}
