package catalog

import (
	"sync"
	"testing"
)

func TestLatestDiscardsStaleCommit(t *testing.T) {
	var models Latest[[]string]

	audi := models.Begin()
	bmw := models.Begin()

	if !models.Commit(bmw, []string{"3 Series", "5 Series"}) {
		t.Fatal("newest commit rejected")
	}
	if models.Commit(audi, []string{"A4", "A6"}) {
		t.Fatal("stale commit accepted")
	}
	if got := models.Load(); len(got) != 2 || got[0] != "3 Series" {
		t.Errorf("Load() = %v", got)
	}
}

func TestLatestFresh(t *testing.T) {
	var l Latest[int]
	if _, ok := l.Fresh(); ok {
		t.Error("empty value reported fresh")
	}

	first := l.Begin()
	l.Commit(first, 1)
	if v, ok := l.Fresh(); !ok || v != 1 {
		t.Errorf("Fresh() = %d, %v after commit", v, ok)
	}

	second := l.Begin()
	if v, ok := l.Fresh(); ok {
		t.Errorf("Fresh() = %d, true while a newer load runs", v)
	}
	if l.Commit(first, 9) {
		t.Error("stale commit accepted")
	}
	l.Commit(second, 2)
	if v, ok := l.Fresh(); !ok || v != 2 {
		t.Errorf("Fresh() = %d, %v after newer commit", v, ok)
	}
}

func TestLatestConcurrent(t *testing.T) {
	var l Latest[int]
	var wg sync.WaitGroup
	tickets := make([]Ticket, 50)
	for i := range tickets {
		tickets[i] = l.Begin()
	}
	last := tickets[len(tickets)-1]

	for i, tk := range tickets {
		wg.Add(1)
		go func(i int, tk Ticket) {
			defer wg.Done()
			l.Commit(tk, i)
		}(i, tk)
	}
	wg.Wait()

	if l.Load() != len(tickets)-1 {
		t.Errorf("Load() = %d, want %d (ticket %d)", l.Load(), len(tickets)-1, last)
	}
}
