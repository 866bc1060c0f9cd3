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

// Package reporting assembles a scheduling run into the outward-facing
// result: project duration, cost, per-resource utilization, and the
// CPM report, plus terminal rendering.
package reporting

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/cpm"
	"github.com/Davidian-Abdo/planitor/pkg/scheduling"
)

// ScheduleResult is the complete outcome of one run.
type ScheduleResult struct {
	RunID               string                            `json:"runId"`
	ProjectName         string                            `json:"projectName,omitempty"`
	Tasks               []*planning.Task                  `json:"tasks"`
	Schedule            map[string]planning.Window        `json:"schedule"`
	ProjectDuration     int                               `json:"projectDuration"`
	TotalCost           decimal.Decimal                   `json:"totalCost"`
	ResourceUtilization map[string]float64                `json:"resourceUtilization"`
	WorkerAllocations   map[string][]planning.Allocation  `json:"workerAllocations"`
	EquipmentAllocations map[string][]planning.Allocation `json:"equipmentAllocations"`
	CPM                 *cpm.Report                       `json:"cpm,omitempty"`
}

// NewScheduleResult computes the run metrics from the scheduler
// output.
func NewScheduleResult(
	cal *calendar.Calendar,
	tasks []*planning.Task,
	results *scheduling.Results,
	workers map[string]*planning.WorkerResource,
	equipment map[string]*planning.EquipmentResource,
	report *cpm.Report,
) *ScheduleResult {
	r := &ScheduleResult{
		RunID:                uuid.NewString(),
		Tasks:                tasks,
		Schedule:             results.Schedule,
		WorkerAllocations:    results.WorkerAllocations,
		EquipmentAllocations: results.EquipmentAllocations,
		ResourceUtilization:  map[string]float64{},
		CPM:                  report,
	}
	if window, ok := results.ProjectWindow(); ok {
		r.ProjectDuration = cal.WorkdaysBetween(window.Start, window.End)
	}
	r.TotalCost = totalCost(cal, tasks, results.Schedule, workers, equipment)
	for name, allocs := range results.WorkerAllocations {
		if w, ok := workers[name]; ok && w.Count > 0 {
			r.ResourceUtilization[name] = float64(peakUnits(allocs)) / float64(w.Count)
		}
	}
	for name, allocs := range results.EquipmentAllocations {
		if e, ok := equipment[name]; ok && e.Count > 0 {
			r.ResourceUtilization[name] = float64(peakUnits(allocs)) / float64(e.Count)
		}
	}
	return r
}

// totalCost sums hourly_rate x 8 x units x working_days over every
// committed allocation.
func totalCost(
	cal *calendar.Calendar,
	tasks []*planning.Task,
	schedule map[string]planning.Window,
	workers map[string]*planning.WorkerResource,
	equipment map[string]*planning.EquipmentResource,
) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tasks {
		w, scheduled := schedule[t.ID]
		if !scheduled {
			continue
		}
		days := decimal.NewFromInt(int64(cal.WorkdaysBetween(w.Start, w.End)))
		if t.AllocatedCrews > 0 {
			if worker, ok := workers[t.ResourceType]; ok {
				total = total.Add(decimal.NewFromFloat(worker.DailyCost()).
					Mul(decimal.NewFromInt(int64(t.AllocatedCrews))).
					Mul(days))
			}
		}
		for name, units := range t.AllocatedEquipments {
			if equip, ok := equipment[name]; ok {
				total = total.Add(decimal.NewFromFloat(equip.DailyCost()).
					Mul(decimal.NewFromInt(int64(units))).
					Mul(days))
			}
		}
	}
	return total
}

// peakUnits computes the peak concurrent units across a resource's
// allocation records.
func peakUnits(allocs []planning.Allocation) int {
	type event struct {
		at    int64
		delta int
	}
	events := make([]event, 0, len(allocs)*2)
	for _, a := range allocs {
		events = append(events, event{at: a.Window.Start.Unix(), delta: a.Units})
		events = append(events, event{at: a.Window.End.Unix(), delta: -a.Units})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
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

// ScheduledTaskIDs returns the committed instance ids sorted by start
// date, then id, for stable rendering.
func (r *ScheduleResult) ScheduledTaskIDs() []string {
	ids := lo.Keys(r.Schedule)
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Schedule[ids[i]], r.Schedule[ids[j]]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return ids[i] < ids[j]
	})
	return ids
}
