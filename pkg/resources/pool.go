/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package resources tracks worker and equipment capacity over time.
// Two pool instances run in parallel during a scheduling run: a worker
// pool keyed by role and an equipment pool keyed by equipment name.
// Feasibility queries are pure; commits go through Allocate/Release.
package resources

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// Kind discriminates the two pool instances in diagnostics.
type Kind string

const (
	KindWorker    Kind = "worker"
	KindEquipment Kind = "equipment"
)

type entry struct {
	capacity   int
	hourlyRate float64
	// maxPerTask caps simultaneous units per base-task id; absent or
	// zero means uncapped.
	maxPerTask map[string]int
}

// Pool is the allocation ledger for one resource kind.
type Pool struct {
	kind    Kind
	entries map[string]entry
	// ledger holds per-resource allocation records ordered by start
	// date.
	ledger map[string][]planning.Allocation
	// byTask indexes the resource names holding records for a task so
	// Release only visits the ledgers of those resources.
	byTask map[string]map[string]struct{}
}

// NewWorkerPool builds a pool over the worker catalog.
func NewWorkerPool(workers map[string]*planning.WorkerResource) *Pool {
	p := newPool(KindWorker)
	for name, w := range workers {
		p.entries[name] = entry{capacity: w.Count, hourlyRate: w.HourlyRate, maxPerTask: w.MaxCrews}
	}
	return p
}

// NewEquipmentPool builds a pool over the equipment catalog.
func NewEquipmentPool(equipment map[string]*planning.EquipmentResource) *Pool {
	p := newPool(KindEquipment)
	for name, e := range equipment {
		p.entries[name] = entry{capacity: e.Count, hourlyRate: e.HourlyRate, maxPerTask: e.MaxEquipment}
	}
	return p
}

func newPool(kind Kind) *Pool {
	return &Pool{
		kind:   kind,
		entries: map[string]entry{},
		ledger: map[string][]planning.Allocation{},
		byTask: map[string]map[string]struct{}{},
	}
}

// Kind returns which catalog the pool manages.
func (p *Pool) Kind() Kind {
	return p.kind
}

// Capacity returns the total units of a resource, 0 when unknown.
func (p *Pool) Capacity(name string) int {
	return p.entries[name].capacity
}

// Names returns the resource names in sorted order.
func (p *Pool) Names() []string {
	names := lo.Keys(p.entries)
	sort.Strings(names)
	return names
}

// ComputeCrewAllocation returns the largest crew count grantable to the
// task over the window without violating capacity or the per-task cap:
// min(requested, capacity - peak usage, max crews for the base task).
// It does not mutate the ledger.
func (p *Pool) ComputeCrewAllocation(t *planning.Task, requested int, w planning.Window) int {
	return p.available(t.ResourceType, t.BaseID, requested, w)
}

// ComputeEquipmentAllocation resolves every equipment requirement of
// the task over the window. Members of an interchangeable group are
// scanned in declared order and filled greedily with the minimum
// needed. The boolean reports feasibility; on failure the string names
// the starved requirement.
func (p *Pool) ComputeEquipmentAllocation(t *planning.Task, w planning.Window) (map[string]int, string, bool) {
	granted := map[string]int{}
	for _, req := range t.MinEquipmentNeeded {
		needed := req.MinUnits
		for _, member := range req.Members {
			if needed == 0 {
				break
			}
			spare := p.available(member, t.BaseID, needed, w)
			if spare <= 0 {
				continue
			}
			granted[member] += spare
			needed -= spare
		}
		if needed > 0 {
			return nil, fmt.Sprintf("equipment %s short by %d unit(s)", req.Key(), needed), false
		}
	}
	return granted, "", true
}

func (p *Pool) available(name, baseID string, requested int, w planning.Window) int {
	e, ok := p.entries[name]
	if !ok {
		return 0
	}
	spare := e.capacity - p.peakUsage(name, w)
	if limit, capped := e.maxPerTask[baseID]; capped && limit > 0 && limit < spare {
		spare = limit
	}
	if requested < spare {
		spare = requested
	}
	if spare < 0 {
		return 0
	}
	return spare
}

// Allocate appends a record for the task. Callers release a task's
// prior records before reallocating; rewinds never cross tasks.
func (p *Pool) Allocate(taskID, baseID, name string, units int, w planning.Window) {
	if units <= 0 {
		return
	}
	records := p.ledger[name]
	alloc := planning.Allocation{TaskID: taskID, BaseID: baseID, Resource: name, Units: units, Window: w}
	at := sort.Search(len(records), func(i int) bool { return records[i].Window.Start.After(w.Start) })
	records = append(records, planning.Allocation{})
	copy(records[at+1:], records[at:])
	records[at] = alloc
	p.ledger[name] = records

	if p.byTask[taskID] == nil {
		p.byTask[taskID] = map[string]struct{}{}
	}
	p.byTask[taskID][name] = struct{}{}
}

// Release removes every record held by the task.
func (p *Pool) Release(taskID string) {
	for name := range p.byTask[taskID] {
		p.ledger[name] = lo.Reject(p.ledger[name], func(a planning.Allocation, _ int) bool {
			return a.TaskID == taskID
		})
		if len(p.ledger[name]) == 0 {
			delete(p.ledger, name)
		}
	}
	delete(p.byTask, taskID)
}

// peakUsage computes the maximum concurrent units held on the resource
// over any day of the half-open window.
func (p *Pool) peakUsage(name string, w planning.Window) int {
	type event struct {
		at    int64
		delta int
	}
	var events []event
	for _, a := range p.ledger[name] {
		if !a.Window.Overlaps(w) {
			continue
		}
		start := a.Window.Start
		if start.Before(w.Start) {
			start = w.Start
		}
		end := a.Window.End
		if end.After(w.End) {
			end = w.End
		}
		events = append(events, event{at: start.Unix(), delta: a.Units})
		events = append(events, event{at: end.Unix(), delta: -a.Units})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		// Ends clear before starts accumulate on the same boundary:
		// intervals are half-open.
		return events[i].delta < events[j].delta
	})
	peak, current := 0, 0
	for _, e := range events {
		current += e.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

// Peak returns the maximum concurrent units ever committed on the
// resource across the whole run.
func (p *Pool) Peak(name string) int {
	records := p.ledger[name]
	if len(records) == 0 {
		return 0
	}
	span := records[0].Window
	for _, a := range records {
		if a.Window.Start.Before(span.Start) {
			span.Start = a.Window.Start
		}
		if a.Window.End.After(span.End) {
			span.End = a.Window.End
		}
	}
	return p.peakUsage(name, span)
}

// Utilization is peak concurrent usage over capacity, in [0, 1] for a
// feasible ledger. Zero capacity yields zero.
func (p *Pool) Utilization(name string) float64 {
	capacity := p.Capacity(name)
	if capacity == 0 {
		return 0
	}
	return float64(p.Peak(name)) / float64(capacity)
}

// Snapshot copies the ledger for reporting.
func (p *Pool) Snapshot() map[string][]planning.Allocation {
	out := make(map[string][]planning.Allocation, len(p.ledger))
	for name, records := range p.ledger {
		out[name] = append([]planning.Allocation(nil), records...)
	}
	return out
}
