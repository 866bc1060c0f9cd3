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

package planning

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus tracks an instance through the scheduling run.
type TaskStatus string

const (
	StatusPlanned    TaskStatus = "planned"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusDelayed    TaskStatus = "delayed"
	StatusOnHold     TaskStatus = "on_hold"
)

// FloorSentinel separates the base id from the floor component in an
// instance id. Zone names must not contain it.
const FloorSentinel = "-F"

// InstanceID formats the globally unique id of a (base, floor, zone)
// instance. The format is stable across runs.
func InstanceID(baseID string, floor int, zone string) string {
	return fmt.Sprintf("%s%s%d-%s", baseID, FloorSentinel, floor, zone)
}

// ValidZoneName reports whether a zone name is usable inside instance
// ids.
func ValidZoneName(zone string) bool {
	return zone != "" && !strings.Contains(zone, FloorSentinel)
}

// Window is a half-open [Start, End) calendar interval. A successor
// starting on End does not overlap the predecessor's work.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open windows share any day.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Task is a materialized instance of a base task for one (zone, floor).
// The expander creates it; only the scheduler mutates the allocation
// and date fields afterwards.
type Task struct {
	ID            string   `json:"id"`
	BaseID        string   `json:"baseId"`
	Name          string   `json:"name"`
	Discipline    string   `json:"discipline"`
	SubDiscipline string   `json:"subDiscipline,omitempty"`
	Zone          string   `json:"zone"`
	Floor         int      `json:"floor"`
	ResourceType  string   `json:"resourceType,omitempty"`
	Type          TaskType `json:"taskType,omitempty"`

	// BaseDuration is nil for resource-calculated tasks until the
	// scheduler commits an allocation.
	BaseDuration    *int           `json:"baseDuration,omitempty"`
	NominalDuration int            `json:"nominalDuration,omitempty"`
	UnitDuration    float64        `json:"unitDuration,omitempty"`
	DurationMethod  DurationMethod `json:"durationMethod,omitempty"`

	MinCrewsNeeded     int                    `json:"minCrewsNeeded,omitempty"`
	MinEquipmentNeeded []EquipmentRequirement `json:"minEquipmentNeeded,omitempty"`

	Predecessors []string `json:"predecessors,omitempty"`

	Quantity            float64        `json:"quantity,omitempty"`
	AllocatedCrews      int            `json:"allocatedCrews,omitempty"`
	AllocatedEquipments map[string]int `json:"allocatedEquipments,omitempty"`
	EarliestStart       *time.Time     `json:"earliestStart,omitempty"`
	Status              TaskStatus     `json:"status"`

	RiskFactor       float64 `json:"riskFactor,omitempty"`
	Delay            int     `json:"delay,omitempty"`
	WeatherSensitive bool    `json:"weatherSensitive,omitempty"`
	QualityGate      bool    `json:"qualityGate,omitempty"`
	Included         bool    `json:"included"`
}

// NewTask materializes an instance from its base template. Resolved
// predecessors are instance ids.
func NewTask(base *BaseTask, floor int, zone string, predecessors []string) *Task {
	return &Task{
		ID:                 InstanceID(base.ID, floor, zone),
		BaseID:             base.ID,
		Name:               base.Name,
		Discipline:         base.Discipline,
		SubDiscipline:      base.SubDiscipline,
		Zone:               zone,
		Floor:              floor,
		ResourceType:       base.ResourceType,
		Type:               base.Type,
		UnitDuration:       base.UnitDuration,
		DurationMethod:     base.DurationMethod,
		MinCrewsNeeded:     base.MinCrewsNeeded,
		MinEquipmentNeeded: base.MinEquipmentNeeded,
		Predecessors:       predecessors,
		Status:             StatusPlanned,
		RiskFactor:         base.RiskFactor,
		Delay:              base.Delay,
		WeatherSensitive:   base.WeatherSensitive,
		QualityGate:        base.QualityGate,
		Included:           base.Included,
		BaseDuration:       baseDurationFor(base),
	}
}

func baseDurationFor(base *BaseTask) *int {
	if base.DurationMethod == DurationResourceCalc {
		return nil
	}
	d := base.BaseDuration
	return &d
}

// NeedsWorkers reports whether the scheduler must grant crews before
// committing the task.
func (t *Task) NeedsWorkers() bool {
	switch t.Type {
	case TaskTypeWorker, TaskTypeHybrid, TaskTypeSupervision:
		return t.MinCrewsNeeded > 0
	}
	return false
}

// NeedsEquipment reports whether the scheduler must grant equipment
// before committing the task.
func (t *Task) NeedsEquipment() bool {
	return len(t.MinEquipmentNeeded) > 0
}
