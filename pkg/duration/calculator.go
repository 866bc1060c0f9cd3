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

// Package duration computes integer working-day durations for task
// instances under the three duration policies: fixed, quantity-based,
// and resource-based.
package duration

import (
	"math"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// minQuantityDays floors the quantity-based formula so a tiny quantity
// still occupies half a day before rounding.
const minQuantityDays = 0.5

// Calculator resolves durations against resource catalogs and the
// quantity matrix. It is read-only over its inputs.
type Calculator struct {
	workers   map[string]*planning.WorkerResource
	equipment map[string]*planning.EquipmentResource
	// quantities maps base id -> floor -> zone -> quantity.
	quantities map[string]map[int]map[string]float64
}

func NewCalculator(
	workers map[string]*planning.WorkerResource,
	equipment map[string]*planning.EquipmentResource,
	quantities map[string]map[int]map[string]float64,
) *Calculator {
	return &Calculator{workers: workers, equipment: equipment, quantities: quantities}
}

// Quantity looks up the physical quantity for a task by
// (base id, floor, zone), defaulting to 0 when absent. Validation
// patches absent entries to 1 before scheduling.
func (c *Calculator) Quantity(t *planning.Task) float64 {
	return c.quantities[t.BaseID][t.Floor][t.Zone]
}

// Precalculated reports whether the task's duration is known before
// allocation. Resource-calculated tasks defer to FromAllocation.
func (c *Calculator) Precalculated(t *planning.Task) bool {
	return t.DurationMethod != planning.DurationResourceCalc
}

// Precalculate resolves the duration of a fixed or quantity-based
// task. Instantaneous tasks yield 0 only through an explicit zero base
// duration.
func (c *Calculator) Precalculate(t *planning.Task) (int, error) {
	switch t.DurationMethod {
	case planning.DurationQuantityBased:
		days := math.Ceil(math.Max(minQuantityDays, c.Quantity(t)*t.UnitDuration))
		return c.checked(t, days)
	case planning.DurationResourceCalc:
		return 0, &planning.InvalidDurationError{TaskID: t.ID, Days: math.NaN()}
	default:
		if t.BaseDuration == nil {
			return 0, &planning.InvalidDurationError{TaskID: t.ID, Days: math.NaN()}
		}
		return c.checked(t, float64(*t.BaseDuration))
	}
}

// FromAllocation resolves the duration of a resource-calculated task
// given the crews and equipment units actually granted. Worker-driven
// tasks divide quantity by crew throughput, equipment-driven tasks by
// equipment throughput, and hybrid tasks take the slower of the two.
func (c *Calculator) FromAllocation(t *planning.Task, crews int, equipment map[string]int) (int, error) {
	var candidates []float64
	if t.NeedsWorkers() {
		candidates = append(candidates, c.workerDays(t, crews))
	}
	if t.NeedsEquipment() {
		candidates = append(candidates, c.equipmentDays(t, equipment))
	}
	if len(candidates) == 0 {
		// A resource-calculated task with no requirements degrades to a
		// single working day.
		return 1, nil
	}
	days := math.Ceil(maxFloat(candidates))
	if days < 1 {
		days = 1
	}
	return c.checked(t, days)
}

func (c *Calculator) workerDays(t *planning.Task, crews int) float64 {
	worker, ok := c.workers[t.ResourceType]
	if !ok || crews <= 0 {
		return math.Inf(1)
	}
	rate := worker.Productivity(t.BaseID)
	if rate <= 0 {
		// Validation patches missing productivities to 1 unit/hour; a
		// zero here means an unpatched catalog.
		rate = 1
	}
	throughput := float64(crews) * rate * planning.HoursPerWorkday
	return c.Quantity(t) / throughput
}

func (c *Calculator) equipmentDays(t *planning.Task, allocated map[string]int) float64 {
	var throughput float64
	for name, units := range allocated {
		equip, ok := c.equipment[name]
		if !ok || units <= 0 {
			continue
		}
		rate := equip.Productivity(t.BaseID)
		if rate <= 0 {
			rate = 1
		}
		throughput += float64(units) * rate * planning.HoursPerWorkday
	}
	if throughput <= 0 {
		return math.Inf(1)
	}
	return c.Quantity(t) / throughput
}

func (c *Calculator) checked(t *planning.Task, days float64) (int, error) {
	if days < 0 || math.IsNaN(days) || math.IsInf(days, 0) {
		return 0, &planning.InvalidDurationError{TaskID: t.ID, Days: days}
	}
	return int(days), nil
}

func maxFloat(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
