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

// Package cpm computes critical-path metadata over the instance graph:
// early and late start/finish, float, and every maximal zero-float
// path. It operates on nominal durations or, given a committed
// schedule, on realized working-day durations.
package cpm

import (
	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/utils/functional"
)

// Metrics is the per-task CPM result, in working days from project
// start.
type Metrics struct {
	EarliestStart  int  `json:"es"`
	EarliestFinish int  `json:"ef"`
	LatestStart    int  `json:"ls"`
	LatestFinish   int  `json:"lf"`
	Float          int  `json:"float"`
	IsCritical     bool `json:"isCritical"`
}

// Report is the full CPM output.
type Report struct {
	PerTask         map[string]Metrics `json:"perTask"`
	ProjectDuration int                `json:"projectDuration"`
	CriticalPaths   [][]string         `json:"criticalPaths"`
}

// CriticalTasks returns the ids with zero float, in input order of the
// analyzed tasks.
func (r *Report) CriticalTasks(order []string) []string {
	return lo.Filter(order, func(id string, _ int) bool { return r.PerTask[id].IsCritical })
}

type Options struct {
	Schedule map[string]planning.Window
	Calendar *calendar.Calendar
}

// WithRealizedDurations makes the analyzer measure each task's
// realized working-day span from the committed schedule instead of its
// nominal duration.
func WithRealizedDurations(schedule map[string]planning.Window, cal *calendar.Calendar) func(Options) Options {
	return func(o Options) Options {
		o.Schedule = schedule
		o.Calendar = cal
		return o
	}
}

// Analyzer owns the forward/backward pass state for one run. Build it,
// run Analyze, read the report.
type Analyzer struct {
	ids          []string
	durations    map[string]int
	dependencies map[string][]string

	adj    map[string][]string
	indeg  map[string]int
	outdeg map[string]int

	es, ef, ls, lf  map[string]int
	projectDuration int
	forwardDone     bool
}

// NewAnalyzer builds an analyzer over the tasks. Durations come from
// the nominal/base duration unless realized durations are requested.
func NewAnalyzer(tasks []*planning.Task, opts ...functional.Option[Options]) *Analyzer {
	options := functional.ResolveOptions(opts...)
	a := &Analyzer{
		durations:    map[string]int{},
		dependencies: map[string][]string{},
		adj:          map[string][]string{},
		indeg:        map[string]int{},
		outdeg:       map[string]int{},
		es:           map[string]int{},
		ef:           map[string]int{},
		ls:           map[string]int{},
		lf:           map[string]int{},
	}
	for _, t := range tasks {
		a.ids = append(a.ids, t.ID)
		a.dependencies[t.ID] = t.Predecessors
		a.durations[t.ID] = nominalDuration(t)
		if options.Schedule != nil {
			if w, ok := options.Schedule[t.ID]; ok {
				a.durations[t.ID] = options.Calendar.WorkdaysBetween(w.Start, w.End)
			}
		}
	}
	a.buildGraph()
	return a
}

func nominalDuration(t *planning.Task) int {
	if t.NominalDuration > 0 {
		return t.NominalDuration
	}
	return lo.FromPtr(t.BaseDuration)
}

func (a *Analyzer) buildGraph() {
	for _, id := range a.ids {
		for _, pred := range a.dependencies[id] {
			a.adj[pred] = append(a.adj[pred], id)
			a.indeg[id]++
			a.outdeg[pred]++
		}
	}
}

// ForwardPass computes earliest start/finish in Kahn order and the
// project duration.
func (a *Analyzer) ForwardPass() {
	indeg := lo.Assign(map[string]int{}, a.indeg)
	queue := lo.Filter(a.ids, func(id string, _ int) bool { return indeg[id] == 0 })

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		start := 0
		for _, pred := range a.dependencies[current] {
			if a.ef[pred] > start {
				start = a.ef[pred]
			}
		}
		a.es[current] = start
		a.ef[current] = start + a.durations[current]

		for _, succ := range a.adj[current] {
			indeg[succ]--
			if indeg[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	a.projectDuration = lo.Max(lo.Values(a.ef))
	a.forwardDone = true
}

// BackwardPass computes latest start/finish by propagating from the
// terminals on out-degree. It requires a completed forward pass.
func (a *Analyzer) BackwardPass() error {
	if !a.forwardDone {
		return &planning.ForwardPassRequiredError{}
	}
	outdeg := lo.Assign(map[string]int{}, a.outdeg)
	var queue []string
	for _, id := range a.ids {
		if outdeg[id] == 0 {
			a.lf[id] = a.projectDuration
			a.ls[id] = a.lf[id] - a.durations[id]
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, pred := range a.dependencies[current] {
			if lf, seen := a.lf[pred]; !seen || a.ls[current] < lf {
				a.lf[pred] = a.ls[current]
			}
			a.ls[pred] = a.lf[pred] - a.durations[pred]
			outdeg[pred]--
			if outdeg[pred] == 0 {
				queue = append(queue, pred)
			}
		}
	}
	return nil
}

// Float is LS - ES for the task.
func (a *Analyzer) Float(id string) int {
	return a.ls[id] - a.es[id]
}

// CriticalPaths enumerates every maximal zero-float path, extending
// from each zero-float root along zero-float successors.
func (a *Analyzer) CriticalPaths() [][]string {
	var paths [][]string
	var dfs func(path []string)
	dfs = func(path []string) {
		last := path[len(path)-1]
		extended := false
		for _, succ := range a.adj[last] {
			if a.Float(succ) == 0 {
				dfs(append(append([]string(nil), path...), succ))
				extended = true
			}
		}
		if !extended {
			paths = append(paths, path)
		}
	}

	for _, id := range a.ids {
		if a.Float(id) != 0 {
			continue
		}
		if a.hasCriticalPredecessor(id) {
			continue
		}
		dfs([]string{id})
	}
	return paths
}

func (a *Analyzer) hasCriticalPredecessor(id string) bool {
	return lo.SomeBy(a.dependencies[id], func(pred string) bool { return a.Float(pred) == 0 })
}

// Analyze runs both passes and assembles the report.
func (a *Analyzer) Analyze() (*Report, error) {
	a.ForwardPass()
	if err := a.BackwardPass(); err != nil {
		return nil, err
	}

	report := &Report{
		PerTask:         map[string]Metrics{},
		ProjectDuration: a.projectDuration,
		CriticalPaths:   a.CriticalPaths(),
	}
	for _, id := range a.ids {
		report.PerTask[id] = Metrics{
			EarliestStart:  a.es[id],
			EarliestFinish: a.ef[id],
			LatestStart:    a.ls[id],
			LatestFinish:   a.lf[id],
			Float:          a.Float(id),
			IsCritical:     a.Float(id) == 0,
		}
	}
	return report, nil
}
