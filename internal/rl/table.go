package rl

import (
	"github.com/janpfeifer/rlTicTacToe/internal/generics"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
)

// StateAction is the key of the per (state, action) tables.
type StateAction struct {
	Key    state.Key
	Action state.Action
}

// actionValues holds the values of the actions recorded for one state, in the order they were first recorded.
// There are at most state.NumCells actions, so a linear search is fine.
type actionValues struct {
	actions []state.Action
	values  []float64
}

func (av *actionValues) find(action state.Action) int {
	for ii, a := range av.actions {
		if a == action {
			return ii
		}
	}
	return -1
}

// ValueTable (Q) maps (state, action) pairs to the estimated return of taking the action in the state.
//
// Entries are created on first write and never removed. Reading a missing entry returns 0.
type ValueTable struct {
	states   map[state.Key]*actionValues
	numPairs int
}

// NewValueTable returns an empty ValueTable.
func NewValueTable() *ValueTable {
	return &ValueTable{states: make(map[state.Key]*actionValues)}
}

// Get returns the value for the (key, action) pair, and whether it is recorded.
func (t *ValueTable) Get(key state.Key, action state.Action) (float64, bool) {
	av, found := t.states[key]
	if !found {
		return 0, false
	}
	idx := av.find(action)
	if idx < 0 {
		return 0, false
	}
	return av.values[idx], true
}

// Value returns the value for the (key, action) pair, or 0 if not recorded.
func (t *ValueTable) Value(key state.Key, action state.Action) float64 {
	v, _ := t.Get(key, action)
	return v
}

// Set the value of the (key, action) pair, creating the entry if needed.
func (t *ValueTable) Set(key state.Key, action state.Action, value float64) {
	av, found := t.states[key]
	if !found {
		av = &actionValues{}
		t.states[key] = av
	}
	idx := av.find(action)
	if idx < 0 {
		av.actions = append(av.actions, action)
		av.values = append(av.values, value)
		t.numPairs++
		return
	}
	av.values[idx] = value
}

// Add delta to the value of the (key, action) pair. Missing entries start at 0.
func (t *ValueTable) Add(key state.Key, action state.Action, delta float64) {
	t.Set(key, action, t.Value(key, action)+delta)
}

// Has returns whether there is at least one action recorded for the state.
func (t *ValueTable) Has(key state.Key) bool {
	_, found := t.states[key]
	return found
}

// Len returns the number of (state, action) pairs recorded.
func (t *ValueTable) Len() int {
	return t.numPairs
}

// NumStates returns the number of states with at least one action recorded.
func (t *ValueTable) NumStates() int {
	return len(t.states)
}

// Actions returns the actions recorded for the state, in the order they were first recorded.
func (t *ValueTable) Actions(key state.Key) []state.Action {
	av, found := t.states[key]
	if !found {
		return nil
	}
	return append([]state.Action(nil), av.actions...)
}

// ArgMax returns the action with the largest value recorded for the state. Ties are resolved
// in favor of the action recorded first. It returns false if the state has no recorded actions.
func (t *ValueTable) ArgMax(key state.Key) (state.Action, bool) {
	av, found := t.states[key]
	if !found {
		return state.NoAction, false
	}
	best := 0
	for ii := 1; ii < len(av.values); ii++ {
		if av.values[ii] > av.values[best] {
			best = ii
		}
	}
	return av.actions[best], true
}

// Max returns the largest value recorded for the state, or 0 if there are none.
func (t *ValueTable) Max(key state.Key) float64 {
	action, found := t.ArgMax(key)
	if !found {
		return 0
	}
	return t.Value(key, action)
}

// Mean returns the arithmetic mean of the values recorded for the state, or 0 if there are none.
func (t *ValueTable) Mean(key state.Key) float64 {
	av, found := t.states[key]
	if !found {
		return 0
	}
	return generics.Mean(av.values)
}

// Keys returns a snapshot of the (state, action) pairs recorded.
func (t *ValueTable) Keys() generics.Set[StateAction] {
	keys := generics.MakeSet[StateAction](t.numPairs)
	for key, av := range t.states {
		for _, action := range av.actions {
			keys.Insert(StateAction{Key: key, Action: action})
		}
	}
	return keys
}

// Policy maps states to the action currently believed to be the best.
type Policy map[state.Key]state.Action

// updateFrom sets the policy for the given states to the arg-max of the value table.
func (p Policy) updateFrom(table *ValueTable, keys generics.Set[state.Key]) {
	for key := range keys {
		if action, found := table.ArgMax(key); found {
			p[key] = action
		}
	}
}

// runningMean accumulates the returns observed for one (state, action) pair.
type runningMean struct {
	count int
	sum   float64
}

// returnsAccumulator keeps, for each (state, action) pair, the count and sum of the returns observed.
// It is equivalent to storing the full list of returns, since only their mean is ever used.
type returnsAccumulator map[StateAction]*runningMean

// Append a return for the pair and return the updated mean.
func (r returnsAccumulator) Append(pair StateAction, value float64) float64 {
	rm, found := r[pair]
	if !found {
		rm = &runningMean{}
		r[pair] = rm
	}
	rm.count++
	rm.sum += value
	return rm.sum / float64(rm.count)
}

// Count returns the number of returns observed for the pair.
func (r returnsAccumulator) Count(pair StateAction) int {
	if rm, found := r[pair]; found {
		return rm.count
	}
	return 0
}
