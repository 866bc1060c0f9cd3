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

	"github.com/samber/lo"
)

// TaskType classifies what kind of capacity a base task consumes.
type TaskType string

const (
	TaskTypeWorker      TaskType = "worker"
	TaskTypeEquipment   TaskType = "equipment"
	TaskTypeMaterial    TaskType = "material"
	TaskTypeHybrid      TaskType = "hybrid"
	TaskTypeSupervision TaskType = "supervision"
)

// DurationMethod selects how a task's duration is computed.
type DurationMethod string

const (
	DurationFixed         DurationMethod = "fixed"
	DurationQuantityBased DurationMethod = "quantity_based"
	DurationResourceCalc  DurationMethod = "resource_calculation"
)

// FloorApplication is the user-facing override for which floors a base
// task materializes on. FloorApplicationAuto defers to the predefined
// floor-range rules.
type FloorApplication string

const (
	FloorApplicationAuto        FloorApplication = "auto"
	FloorApplicationGroundOnly  FloorApplication = "ground_only"
	FloorApplicationAboveGround FloorApplication = "above_ground"
	FloorApplicationAllFloors   FloorApplication = "all_floors"
)

// FloorPolicy collects every field that influences which floors a base
// task repeats on. Missing fields carry documented defaults: Applies
// defaults to auto, RepeatOnFloor to true, StartFloor to 0 and EndFloor
// (nil) to the zone's top floor.
type FloorPolicy struct {
	Applies       FloorApplication `json:"applies,omitempty"`
	RepeatOnFloor bool             `json:"repeatOnFloor"`
	GroundOnly    bool             `json:"groundOnly,omitempty"`
	CustomRange   []int            `json:"customRange,omitempty"`
	StartFloor    int              `json:"startFloor,omitempty"`
	EndFloor      *int             `json:"endFloor,omitempty"`
}

// DefaultFloorPolicy returns the policy applied when a base task record
// carries no explicit floor configuration.
func DefaultFloorPolicy() FloorPolicy {
	return FloorPolicy{Applies: FloorApplicationAuto, RepeatOnFloor: true}
}

// CrossFloorDependency is a user-extended edge pointing at another base
// task on a floor relative to the instance's own. Zone, when set,
// overrides the instance's zone.
type CrossFloorDependency struct {
	Target      string `json:"target"`
	FloorOffset int    `json:"floorOffset"`
	Zone        string `json:"zone,omitempty"`
}

// FloorRange is a closed interval of floors.
type FloorRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether floor falls inside the range.
func (r FloorRange) Contains(floor int) bool {
	return r.Min <= floor && floor <= r.Max
}

// CustomDependency is a user-extended same-floor edge, optionally gated
// to a subset of zones and a floor range.
type CustomDependency struct {
	Target     string      `json:"target"`
	Zones      []string    `json:"zones,omitempty"`
	FloorRange *FloorRange `json:"floorRange,omitempty"`
	Zone       string      `json:"zone,omitempty"`
}

// AppliesTo reports whether the dependency is active for the given
// zone and floor.
func (d CustomDependency) AppliesTo(zone string, floor int) bool {
	if len(d.Zones) > 0 && !lo.Contains(d.Zones, zone) {
		return false
	}
	if d.FloorRange != nil && !d.FloorRange.Contains(floor) {
		return false
	}
	return true
}

// EquipmentRequirement is the normalized form of a min_equipment_needed
// entry: a group of interchangeable equipment names and the minimum
// units that must be granted across the group. A scalar requirement is
// a single-member group.
type EquipmentRequirement struct {
	Members  []string `json:"members"`
	MinUnits int      `json:"minUnits"`
}

// Key returns a stable identifier for the requirement, used in
// diagnostics.
func (r EquipmentRequirement) Key() string {
	if len(r.Members) == 1 {
		return r.Members[0]
	}
	return fmt.Sprintf("group(%v)", r.Members)
}

// BaseTask is the immutable template for a kind of work, expanded
// across zones and floors by the expander. Instances copy its duration
// and resource requirements.
type BaseTask struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Discipline    string   `json:"discipline"`
	SubDiscipline string   `json:"subDiscipline,omitempty"`
	ResourceType  string   `json:"resourceType,omitempty"`
	Type          TaskType `json:"taskType,omitempty"`

	BaseDuration   int            `json:"baseDuration"`
	UnitDuration   float64        `json:"unitDuration,omitempty"`
	DurationMethod DurationMethod `json:"durationMethod,omitempty"`

	MinCrewsNeeded     int                    `json:"minCrewsNeeded,omitempty"`
	MinEquipmentNeeded []EquipmentRequirement `json:"minEquipmentNeeded,omitempty"`

	// Predecessors lists base-task ids resolved into intra-floor/zone
	// edges during expansion.
	Predecessors []string `json:"predecessors,omitempty"`
	// PredecessorFloorOffset shifts the floor a successor looks at when
	// resolving this base task as a regular predecessor.
	PredecessorFloorOffset int `json:"predecessorFloorOffset,omitempty"`

	FloorPolicy          FloorPolicy `json:"floorPolicy"`
	CrossFloorRepetition bool        `json:"crossFloorRepetition,omitempty"`
	VerticalWorkflow     bool        `json:"verticalWorkflow,omitempty"`

	CrossFloorDependencies []CrossFloorDependency `json:"crossFloorDependencies,omitempty"`
	CustomDependencies     []CustomDependency     `json:"customDependencies,omitempty"`

	RiskFactor       float64 `json:"riskFactor,omitempty"`
	Delay            int     `json:"delay,omitempty"`
	WeatherSensitive bool    `json:"weatherSensitive,omitempty"`
	QualityGate      bool    `json:"qualityGate,omitempty"`
	Included         bool    `json:"included"`
}

// NormalizeEquipmentRequirements converts the loose map form accepted
// on input (key may be a single name or a "|"-joined group of
// interchangeable names) into ordered EquipmentRequirement groups.
// Groups come out in input order of the supplied pairs.
func NormalizeEquipmentRequirements(pairs []lo.Entry[string, int]) []EquipmentRequirement {
	return lo.Map(pairs, func(e lo.Entry[string, int], _ int) EquipmentRequirement {
		return EquipmentRequirement{Members: splitGroupKey(e.Key), MinUnits: e.Value}
	})
}

func splitGroupKey(key string) []string {
	var members []string
	start := 0
	for i := 0; i <= len(key); i++ {
		if i == len(key) || key[i] == '|' {
			if i > start {
				members = append(members, key[start:i])
			}
			start = i + 1
		}
	}
	return members
}
