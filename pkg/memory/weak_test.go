package memory

import "testing"

func TestWeak_DoesNotCount(t *testing.T) {
	var log []string
	p := newTracked(&log, "a")

	ws := make([]Weak[tracked], 10)
	for i := range ws {
		ws[i] = p.Weak()
	}
	if p.UseCount() != 1 || p.GroupUseCount() != 1 {
		t.Errorf("weak handles changed counts: %d/%d", p.UseCount(), p.GroupUseCount())
	}

	p.Reset()
	expectDestroyed(t, log, "a")
	for _, w := range ws {
		if !w.Expired() {
			t.Error("weak handle should be expired")
		}
	}
}

func TestWeak_Lock(t *testing.T) {
	var log []string
	p := newTracked(&log, "a")
	w := NewWeak(p)

	q := w.Lock()
	if !q.Valid() || !q.Equal(p) {
		t.Fatal("lock should return a handle to the same member")
	}
	if p.UseCount() != 2 {
		t.Errorf("locked handle should count, got %d", p.UseCount())
	}

	p.Reset()
	expectDestroyed(t, log)
	q.Reset()
	expectDestroyed(t, log, "a")

	if r := w.Lock(); r.Valid() {
		t.Error("lock on expired weak should return an empty handle")
	}
}

func TestWeak_ZeroAndEmpty(t *testing.T) {
	var w Weak[tracked]
	if !w.Expired() {
		t.Error("zero weak should be expired")
	}
	if w.Lock().Valid() {
		t.Error("zero weak should lock to empty")
	}

	var p Ptr[tracked]
	if !NewWeak(&p).Expired() {
		t.Error("weak of empty handle should be expired")
	}
}

func TestWeak_FollowsGroup(t *testing.T) {
	var log []string
	a := newTracked(&log, "a")
	b := newTracked(&log, "b")
	wb := b.Weak()
	a.AddToGroup(b)
	b.Reset()

	locked := wb.Lock()
	if !locked.Valid() {
		t.Fatal("grouped member should still lock")
	}
	if a.GroupUseCount() != 2 {
		t.Errorf("expected 2, got %d", a.GroupUseCount())
	}
	locked.Reset()

	if wb.Is(a) {
		t.Error("weak to b should not match a")
	}

	a.Reset()
	if !wb.Expired() {
		t.Error("weak should expire with its group")
	}
}

// selfRef holds a weak handle to itself so it can hand out strong handles.
type selfRef struct {
	self Weak[selfRef]
	log  *[]string
}

func (s *selfRef) Close() error {
	*s.log = append(*s.log, "self")
	return nil
}

func TestWeak_SelfReference(t *testing.T) {
	var log []string
	s := &selfRef{log: &log}
	p := New(s)
	s.self = p.Weak()

	me := s.self.Lock()
	if !me.Equal(p) {
		t.Error("self lock should resolve to own member")
	}
	me.Reset()
	p.Reset()
	expectDestroyed(t, log, "self")
}

// holder releases a handle it owns while its own group is being destroyed.
type holder struct {
	other *Ptr[tracked]
	log   *[]string
}

func (h *holder) Close() error {
	*h.log = append(*h.log, "holder")
	h.other.Reset()
	return nil
}

func TestDestroy_CascadesAcrossGroups(t *testing.T) {
	var log []string
	inner := newTracked(&log, "inner")
	h := New(&holder{other: inner.Clone(), log: &log})
	inner.Reset()
	expectDestroyed(t, log)

	h.Reset()
	expectDestroyed(t, log, "holder", "inner")
}

func TestDestroy_StrongCycleInsideGroupLeaks(t *testing.T) {
	var log []string
	inner := newTracked(&log, "inner")
	h := New(&holder{other: inner.Clone(), log: &log})
	inner.Reset()

	// The holder now owns a strong handle into its own group, so the group
	// can never reach zero.
	h.AddToGroup(h.Get().other)
	w := h.Weak()
	h.Reset()

	expectDestroyed(t, log)
	if w.Expired() {
		t.Error("a strong handle held inside the group keeps it alive")
	}

	// Breaking the cycle by hand releases everything.
	p := w.Lock()
	p.Get().other.Reset()
	expectDestroyed(t, log)
	p.Reset()
	expectDestroyed(t, log, "inner", "holder")
}
