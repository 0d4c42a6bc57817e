package executor

import (
	"fmt"
	"sort"
)

// RunState is the bookkeeping of a single pass. It is owned by the
// scheduling goroutine; workers only ever resolve futures.
type RunState struct {
	status   map[string]Status
	errs     map[string]error
	futures  map[string]*Future
	harvest  map[string]bool
	failures int
}

func newRunState(names []string) *RunState {
	st := &RunState{
		status:  make(map[string]Status, len(names)),
		errs:    make(map[string]error),
		futures: make(map[string]*Future),
		harvest: make(map[string]bool),
	}
	for _, n := range names {
		st.status[n] = Pending
	}
	return st
}

func (s *RunState) move(name string, next Status) error {
	cur, ok := s.status[name]
	if !ok {
		return fmt.Errorf("executor: unknown task %q", name)
	}
	if !cur.canMove(next) {
		return fmt.Errorf("executor: task %q cannot move from %s to %s", name, cur, next)
	}
	s.status[name] = next
	if next == Failed {
		s.failures++
	}
	return nil
}

// blocked reports whether any of deps failed or was canceled.
func (s *RunState) blocked(deps []string) bool {
	for _, d := range deps {
		if st := s.status[d]; st == Failed || st == Canceled {
			return true
		}
	}
	return false
}

// futuresOf returns the futures submitted for deps, skipping those that
// never got one.
func (s *RunState) futuresOf(deps []string) []*Future {
	var out []*Future
	for _, d := range deps {
		if f, ok := s.futures[d]; ok {
			out = append(out, f)
		}
	}
	return out
}

// outstanding returns futures whose outcome has not been recorded yet.
func (s *RunState) outstanding() []*Future {
	var out []*Future
	for name, f := range s.futures {
		if !s.harvest[name] {
			out = append(out, f)
		}
	}
	return out
}

func (s *RunState) namesWith(st Status) []string {
	var out []string
	for name, cur := range s.status {
		if cur == st {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Status returns the state of a task in this pass.
func (s *RunState) Status(name string) (Status, bool) {
	st, ok := s.status[name]
	return st, ok
}

// PassResult is the immutable outcome of one pass.
type PassResult struct {
	Failed     []string
	Canceled   []string
	Successful []string
	// Errors holds the error of every failed task.
	Errors map[string]error
}

func (s *RunState) result() PassResult {
	errs := make(map[string]error, len(s.errs))
	for k, v := range s.errs {
		errs[k] = v
	}
	return PassResult{
		Failed:     s.namesWith(Failed),
		Canceled:   s.namesWith(Canceled),
		Successful: s.namesWith(Succeeded),
		Errors:     errs,
	}
}

// RunResult combines the forward and cleanup passes. The accessors below
// partition the tasks that left an outcome: a task lands in Failed if either
// of its actions failed, else in Canceled if either was canceled, else in
// Successful. The per-pass detail stays in Forward and Cleanup.
type RunResult struct {
	RunID   string
	DryRun  bool
	Forward PassResult
	Cleanup PassResult
}

// Failed returns every task that failed in either pass, sorted.
func (r *RunResult) Failed() []string {
	return union(r.Forward.Failed, r.Cleanup.Failed)
}

// Canceled returns the tasks canceled in either pass that did not fail in
// the other one, sorted.
func (r *RunResult) Canceled() []string {
	return without(union(r.Forward.Canceled, r.Cleanup.Canceled), r.Failed())
}

// Successful returns the tasks whose forward action succeeded and whose
// cleanup neither failed nor was canceled, sorted.
func (r *RunResult) Successful() []string {
	return without(union(r.Forward.Successful, nil), r.Failed(), r.Canceled())
}

// OK reports whether nothing failed.
func (r *RunResult) OK() bool {
	return len(r.Failed()) == 0
}

func without(names []string, exclude ...[]string) []string {
	drop := make(map[string]struct{})
	for _, list := range exclude {
		for _, n := range list {
			drop[n] = struct{}{}
		}
	}
	var out []string
	for _, n := range names {
		if _, ok := drop[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
