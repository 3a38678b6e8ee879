package api

// MultiResult groups the outcomes one host produced for a single task and its
// subtasks. Failed and Changed are derived from the members on every call.
type MultiResult struct {
	name    string
	results []Outcome
}

func NewMultiResult(name string, results ...Outcome) *MultiResult {
	return &MultiResult{name: name, results: append([]Outcome(nil), results...)}
}

func (m *MultiResult) Name() string { return m.name }

// Append adds outcomes in order. Not safe for concurrent use; a group is
// owned by the goroutine running its host.
func (m *MultiResult) Append(results ...Outcome) {
	m.results = append(m.results, results...)
}

// Results returns the members in order.
func (m *MultiResult) Results() []Outcome {
	return append([]Outcome(nil), m.results...)
}

func (m *MultiResult) Len() int { return len(m.results) }

// Host returns the host of the first member, nil for an empty group.
func (m *MultiResult) Host() *Host {
	if len(m.results) == 0 {
		return nil
	}
	return m.results[0].Host()
}

func (m *MultiResult) Failed() bool {
	for _, r := range m.results {
		if r.Failed() {
			return true
		}
	}
	return false
}

func (m *MultiResult) Changed() bool {
	for _, r := range m.results {
		if r.Changed() {
			return true
		}
	}
	return false
}

// AggregatedResult maps host names to their result group for one run,
// keeping insertion order.
type AggregatedResult struct {
	name   string
	runID  string
	hosts  []string
	groups map[string]*MultiResult
}

func NewAggregatedResult(name string) *AggregatedResult {
	return &AggregatedResult{name: name, groups: map[string]*MultiResult{}}
}

func (a *AggregatedResult) Name() string { return a.name }

// RunID is the identifier of the run that produced the aggregate, empty when
// it was assembled by hand.
func (a *AggregatedResult) RunID() string { return a.runID }

func (a *AggregatedResult) SetRunID(id string) { a.runID = id }

// Set stores the group for host. Re-setting a host keeps its position; a
// nil group is stored as an empty one.
func (a *AggregatedResult) Set(host string, group *MultiResult) {
	if group == nil {
		group = NewMultiResult(a.name)
	}
	if _, ok := a.groups[host]; !ok {
		a.hosts = append(a.hosts, host)
	}
	a.groups[host] = group
}

func (a *AggregatedResult) Get(host string) (*MultiResult, bool) {
	g, ok := a.groups[host]
	return g, ok
}

// Hosts returns host names in insertion order.
func (a *AggregatedResult) Hosts() []string {
	return append([]string(nil), a.hosts...)
}

func (a *AggregatedResult) Len() int { return len(a.hosts) }

func (a *AggregatedResult) Failed() bool {
	for _, h := range a.hosts {
		if a.groups[h].Failed() {
			return true
		}
	}
	return false
}

// FailedHosts returns a new aggregate restricted to hosts whose group failed.
func (a *AggregatedResult) FailedHosts() *AggregatedResult {
	out := NewAggregatedResult(a.name)
	out.runID = a.runID
	for _, h := range a.hosts {
		if g := a.groups[h]; g.Failed() {
			out.Set(h, g)
		}
	}
	return out
}
