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

package expansion

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/utils/logging"
	"github.com/Davidian-Abdo/planitor/pkg/utils/pretty"
)

// Warning records an input hole that validation auto-patched. Warnings
// never abort a run.
type Warning struct {
	Kind   string
	TaskID string
	Detail string
}

const (
	WarningMissingQuantity     = "missing_quantity"
	WarningMissingProductivity = "missing_productivity"
)

var warningMonitor = pretty.NewChangeMonitor()

// Validate checks the materialized graph and patches input holes.
// Missing predecessor references and cycles abort; missing quantities
// and productivities are patched in place (quantity 1, productivity 1
// unit/hour) and reported as warnings.
func Validate(
	ctx context.Context,
	result *Result,
	workers map[string]*planning.WorkerResource,
	equipment map[string]*planning.EquipmentResource,
	quantities map[string]map[int]map[string]float64,
) ([]Warning, error) {
	if err := checkPredecessors(result); err != nil {
		return nil, err
	}
	if _, err := TopologicalOrder(result.Tasks); err != nil {
		return nil, err
	}

	var warnings []Warning
	warnings = append(warnings, patchQuantities(ctx, result.Tasks, quantities)...)
	warnings = append(warnings, patchProductivities(ctx, result.Tasks, workers, equipment)...)
	return warnings, nil
}

func checkPredecessors(result *Result) (errs error) {
	for _, t := range result.Tasks {
		for _, pred := range t.Predecessors {
			if _, ok := result.ByID[pred]; !ok {
				errs = multierr.Append(errs, &planning.MissingPredecessorError{TaskID: t.ID, PredecessorID: pred})
			}
		}
	}
	return errs
}

// TopologicalOrder returns the instance ids in a Kahn ordering, or a
// CycleDetectedError naming the unorderable tasks.
func TopologicalOrder(tasks []*planning.Task) ([]string, error) {
	indegree := map[string]int{}
	successors := map[string][]string{}
	for _, t := range tasks {
		indegree[t.ID] += 0
		for _, pred := range t.Predecessors {
			indegree[t.ID]++
			successors[pred] = append(successors[pred], t.ID)
		}
	}

	var queue []string
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	var ordered []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)
		for _, succ := range successors[current] {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(ordered) != len(tasks) {
		remaining := lo.Filter(lo.Map(tasks, func(t *planning.Task, _ int) string { return t.ID }), func(id string, _ int) bool {
			return indegree[id] > 0
		})
		sort.Strings(remaining)
		return nil, &planning.CycleDetectedError{Remaining: remaining}
	}
	return ordered, nil
}

// patchQuantities backfills quantity-matrix holes for tasks whose
// duration depends on quantity.
func patchQuantities(ctx context.Context, tasks []*planning.Task, quantities map[string]map[int]map[string]float64) []Warning {
	var warnings []Warning
	for _, t := range tasks {
		if t.DurationMethod != planning.DurationQuantityBased && t.DurationMethod != planning.DurationResourceCalc {
			continue
		}
		if _, ok := quantities[t.BaseID][t.Floor][t.Zone]; ok {
			continue
		}
		if quantities[t.BaseID] == nil {
			quantities[t.BaseID] = map[int]map[string]float64{}
		}
		if quantities[t.BaseID][t.Floor] == nil {
			quantities[t.BaseID][t.Floor] = map[string]float64{}
		}
		quantities[t.BaseID][t.Floor][t.Zone] = 1
		w := Warning{Kind: WarningMissingQuantity, TaskID: t.ID, Detail: "no quantity defined, defaulting to 1"}
		warnings = append(warnings, w)
		if warningMonitor.HasChanged("quantity/"+t.ID, w) {
			logging.FromContext(ctx).With("task", t.ID).Warnf("no quantity defined, defaulting to 1")
		}
	}
	return warnings
}

// patchProductivities backfills missing per-base-task productivity
// rates at 1 unit/hour for the roles and equipment the graph uses.
func patchProductivities(
	ctx context.Context,
	tasks []*planning.Task,
	workers map[string]*planning.WorkerResource,
	equipment map[string]*planning.EquipmentResource,
) []Warning {
	var warnings []Warning
	logger := logging.FromContext(ctx)
	for _, t := range tasks {
		if t.DurationMethod != planning.DurationResourceCalc {
			continue
		}
		if worker, ok := workers[t.ResourceType]; ok {
			if _, rated := worker.ProductivityRates[t.BaseID]; !rated {
				if worker.ProductivityRates == nil {
					worker.ProductivityRates = map[string]float64{}
				}
				worker.ProductivityRates[t.BaseID] = 1
				w := Warning{Kind: WarningMissingProductivity, TaskID: t.ID, Detail: "no productivity for worker " + worker.Name + ", defaulting to 1 unit/hour"}
				warnings = append(warnings, w)
				if warningMonitor.HasChanged("productivity/worker/"+worker.Name+"/"+t.BaseID, w) {
					logger.With("task", t.ID, "worker", worker.Name).Warnf("no productivity rate, defaulting to 1 unit/hour")
				}
			}
		}
		for _, req := range t.MinEquipmentNeeded {
			for _, member := range req.Members {
				equip, ok := equipment[member]
				if !ok {
					continue
				}
				if _, rated := equip.ProductivityRates[t.BaseID]; rated {
					continue
				}
				if equip.ProductivityRates == nil {
					equip.ProductivityRates = map[string]float64{}
				}
				equip.ProductivityRates[t.BaseID] = 1
				w := Warning{Kind: WarningMissingProductivity, TaskID: t.ID, Detail: "no productivity for equipment " + equip.Name + ", defaulting to 1 unit/hour"}
				warnings = append(warnings, w)
				if warningMonitor.HasChanged("productivity/equipment/"+equip.Name+"/"+t.BaseID, w) {
					logger.With("task", t.ID, "equipment", equip.Name).Warnf("no productivity rate, defaulting to 1 unit/hour")
				}
			}
		}
	}
	return warnings
}
