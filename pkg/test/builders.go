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

// Package test provides fixture builders for the engine suites. Every
// builder returns a fully valid object; options mutate the defaults.
package test

import (
	"github.com/Pallinder/go-randomdata"
	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// BaseTaskOption mutates a base task under construction.
type BaseTaskOption func(*planning.BaseTask)

// BaseTask builds an included, fixed-duration, single-crew base task.
func BaseTask(id string, opts ...BaseTaskOption) *planning.BaseTask {
	base := &planning.BaseTask{
		ID:             id,
		Name:           randomdata.SillyName(),
		Discipline:     "GrosŒuvre",
		ResourceType:   "Maçon",
		Type:           planning.TaskTypeWorker,
		BaseDuration:   1,
		DurationMethod: planning.DurationFixed,
		MinCrewsNeeded: 1,
		FloorPolicy:    planning.DefaultFloorPolicy(),
		RiskFactor:     1,
		Included:       true,
	}
	for _, opt := range opts {
		opt(base)
	}
	return base
}

// BaseTasks indexes base tasks by id.
func BaseTasks(tasks ...*planning.BaseTask) map[string]*planning.BaseTask {
	return lo.SliceToMap(tasks, func(b *planning.BaseTask) (string, *planning.BaseTask) { return b.ID, b })
}

func WithName(name string) BaseTaskOption {
	return func(b *planning.BaseTask) { b.Name = name }
}

func WithDiscipline(discipline string) BaseTaskOption {
	return func(b *planning.BaseTask) { b.Discipline = discipline }
}

func WithPredecessors(ids ...string) BaseTaskOption {
	return func(b *planning.BaseTask) { b.Predecessors = ids }
}

func WithFloorPolicy(policy planning.FloorPolicy) BaseTaskOption {
	return func(b *planning.BaseTask) { b.FloorPolicy = policy }
}

// AllFloors repeats the task on every floor of each zone.
func AllFloors() BaseTaskOption {
	return WithFloorPolicy(planning.FloorPolicy{Applies: planning.FloorApplicationAllFloors, RepeatOnFloor: true})
}

// Vertical enables the same-task floor-over-floor chain.
func Vertical() BaseTaskOption {
	return WithCrossFloorRepetition(true, true)
}

func WithCrossFloorRepetition(repetition, workflow bool) BaseTaskOption {
	return func(b *planning.BaseTask) {
		b.CrossFloorRepetition = repetition
		b.VerticalWorkflow = workflow
	}
}

func WithCrossFloorDependencies(deps ...planning.CrossFloorDependency) BaseTaskOption {
	return func(b *planning.BaseTask) { b.CrossFloorDependencies = deps }
}

func WithCustomDependencies(deps ...planning.CustomDependency) BaseTaskOption {
	return func(b *planning.BaseTask) { b.CustomDependencies = deps }
}

func WithFixedDuration(days int) BaseTaskOption {
	return func(b *planning.BaseTask) {
		b.DurationMethod = planning.DurationFixed
		b.BaseDuration = days
	}
}

// QuantityBased switches the task to quantity-driven duration.
func QuantityBased(unitDuration float64) BaseTaskOption {
	return func(b *planning.BaseTask) {
		b.DurationMethod = planning.DurationQuantityBased
		b.UnitDuration = unitDuration
	}
}

// ResourceCalculated switches the task to allocation-driven duration.
func ResourceCalculated(role string, minCrews int) BaseTaskOption {
	return func(b *planning.BaseTask) {
		b.DurationMethod = planning.DurationResourceCalc
		b.ResourceType = role
		b.MinCrewsNeeded = minCrews
	}
}

func WithResourceType(role string) BaseTaskOption {
	return func(b *planning.BaseTask) { b.ResourceType = role }
}

func WithTaskType(taskType planning.TaskType) BaseTaskOption {
	return func(b *planning.BaseTask) { b.Type = taskType }
}

func WithMinCrews(crews int) BaseTaskOption {
	return func(b *planning.BaseTask) { b.MinCrewsNeeded = crews }
}

func WithEquipmentNeeded(reqs ...planning.EquipmentRequirement) BaseTaskOption {
	return func(b *planning.BaseTask) {
		b.MinEquipmentNeeded = reqs
		if b.Type == planning.TaskTypeWorker {
			b.Type = planning.TaskTypeHybrid
		}
	}
}

func WithDelay(days int) BaseTaskOption {
	return func(b *planning.BaseTask) { b.Delay = days }
}

func Excluded() BaseTaskOption {
	return func(b *planning.BaseTask) { b.Included = false }
}

// WorkerOption mutates a worker resource under construction.
type WorkerOption func(*planning.WorkerResource)

// Worker builds a worker role with ample capacity.
func Worker(name string, count int, opts ...WorkerOption) *planning.WorkerResource {
	worker := &planning.WorkerResource{
		Name:              name,
		Count:             count,
		HourlyRate:        18,
		ProductivityRates: map[string]float64{},
		Efficiency:        1,
	}
	for _, opt := range opts {
		opt(worker)
	}
	return worker
}

func WithProductivity(baseID string, rate float64) WorkerOption {
	return func(w *planning.WorkerResource) { w.ProductivityRates[baseID] = rate }
}

func WithMaxCrews(baseID string, crews int) WorkerOption {
	return func(w *planning.WorkerResource) {
		if w.MaxCrews == nil {
			w.MaxCrews = map[string]int{}
		}
		w.MaxCrews[baseID] = crews
	}
}

func WithHourlyRate(rate float64) WorkerOption {
	return func(w *planning.WorkerResource) { w.HourlyRate = rate }
}

// Workers indexes worker resources by name.
func Workers(workers ...*planning.WorkerResource) map[string]*planning.WorkerResource {
	return lo.SliceToMap(workers, func(w *planning.WorkerResource) (string, *planning.WorkerResource) { return w.Name, w })
}

// EquipmentOption mutates an equipment resource under construction.
type EquipmentOption func(*planning.EquipmentResource)

// Equipment builds an equipment kind.
func Equipment(name string, count int, opts ...EquipmentOption) *planning.EquipmentResource {
	equip := &planning.EquipmentResource{
		Name:              name,
		Count:             count,
		HourlyRate:        50,
		ProductivityRates: map[string]float64{},
		Type:              "general",
		Efficiency:        1,
	}
	for _, opt := range opts {
		opt(equip)
	}
	return equip
}

func WithEquipmentProductivity(baseID string, rate float64) EquipmentOption {
	return func(e *planning.EquipmentResource) { e.ProductivityRates[baseID] = rate }
}

// EquipmentCatalog indexes equipment resources by name.
func EquipmentCatalog(equipment ...*planning.EquipmentResource) map[string]*planning.EquipmentResource {
	return lo.SliceToMap(equipment, func(e *planning.EquipmentResource) (string, *planning.EquipmentResource) { return e.Name, e })
}
