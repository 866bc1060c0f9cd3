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

package loader

import (
	"sort"

	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/expansion"
)

// BaseTaskRecord is the loose input form of a base task. Optional
// booleans are pointers so absence keeps the documented default
// (included, repeating on floors). Equipment keys may name a single
// kind or a "|"-joined group of interchangeable kinds.
type BaseTaskRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Discipline    string `json:"discipline"`
	SubDiscipline string `json:"subDiscipline,omitempty"`
	ResourceType  string `json:"resourceType,omitempty"`
	TaskType      string `json:"taskType,omitempty"`

	BaseDuration   int     `json:"baseDuration"`
	UnitDuration   float64 `json:"unitDuration,omitempty"`
	DurationMethod string  `json:"durationMethod,omitempty"`

	MinCrewsNeeded int            `json:"minCrewsNeeded,omitempty"`
	MinEquipment   map[string]int `json:"minEquipment,omitempty"`

	Predecessors           []string `json:"predecessors,omitempty"`
	PredecessorFloorOffset int      `json:"predecessorFloorOffset,omitempty"`

	AppliesToFloors string `json:"appliesToFloors,omitempty"`
	RepeatOnFloor   *bool  `json:"repeatOnFloor,omitempty"`
	GroundOnly      bool   `json:"groundOnly,omitempty"`
	CustomRange     []int  `json:"customFloorRange,omitempty"`
	StartFloor      int    `json:"startFloor,omitempty"`
	EndFloor        *int   `json:"endFloor,omitempty"`

	CrossFloorRepetition bool `json:"crossFloorRepetition,omitempty"`
	VerticalWorkflow     bool `json:"verticalWorkflow,omitempty"`

	CrossFloorDependencies []planning.CrossFloorDependency `json:"crossFloorDependencies,omitempty"`
	CustomDependencies     []planning.CustomDependency     `json:"customDependencies,omitempty"`

	RiskFactor       float64 `json:"riskFactor,omitempty"`
	Delay            int     `json:"delay,omitempty"`
	WeatherSensitive bool    `json:"weatherSensitive,omitempty"`
	QualityGate      bool    `json:"qualityGate,omitempty"`
	Included         *bool   `json:"included,omitempty"`
}

// ZoneRecord is one zone of the project.
type ZoneRecord struct {
	Name     string `json:"name"`
	MaxFloor int    `json:"maxFloor"`
}

// SequenceZoneRecord is one zone inside a sequencing group.
type SequenceZoneRecord struct {
	Zone         string   `json:"zone"`
	ParallelWith []string `json:"parallelWith,omitempty"`
}

// ProjectDefinition is the full structural input of a run.
type ProjectDefinition struct {
	Name              string                            `json:"name,omitempty"`
	BaseTasks         []BaseTaskRecord                  `json:"baseTasks"`
	Zones             []ZoneRecord                      `json:"zones"`
	CrossFloorLinks   map[string][]string               `json:"crossFloorLinks,omitempty"`
	GroundDisciplines []string                          `json:"groundDisciplines,omitempty"`
	Sequencing        map[string][][]SequenceZoneRecord `json:"sequencing,omitempty"`
}

// ExpansionConfig converts the loose records into the expander's
// input.
func (p ProjectDefinition) ExpansionConfig() expansion.Config {
	return expansion.Config{
		BaseTasks: lo.SliceToMap(p.BaseTasks, func(r BaseTaskRecord) (string, *planning.BaseTask) {
			return r.ID, r.BaseTask()
		}),
		Zones: lo.Map(p.Zones, func(z ZoneRecord, _ int) planning.Zone {
			return planning.Zone{Name: z.Name, MaxFloor: z.MaxFloor}
		}),
		CrossFloorLinks:   p.CrossFloorLinks,
		GroundDisciplines: p.GroundDisciplines,
		DisciplineZones: lo.MapValues(p.Sequencing, func(groups [][]SequenceZoneRecord, _ string) []expansion.ZoneGroup {
			return lo.Map(groups, func(group []SequenceZoneRecord, _ int) expansion.ZoneGroup {
				return lo.Map(group, func(z SequenceZoneRecord, _ int) expansion.ZoneEntry {
					return expansion.ZoneEntry{Zone: z.Zone, ParallelWith: z.ParallelWith}
				})
			})
		}),
	}
}

// BaseTask resolves the record's defaults into a domain base task.
// Equipment requirement groups come out in sorted key order so runs
// stay deterministic regardless of map iteration.
func (r BaseTaskRecord) BaseTask() *planning.BaseTask {
	keys := lo.Keys(r.MinEquipment)
	sort.Strings(keys)
	requirements := planning.NormalizeEquipmentRequirements(lo.Map(keys, func(k string, _ int) lo.Entry[string, int] {
		return lo.Entry[string, int]{Key: k, Value: r.MinEquipment[k]}
	}))

	taskType := planning.TaskType(r.TaskType)
	if taskType == "" {
		taskType = planning.TaskTypeWorker
	}
	method := planning.DurationMethod(r.DurationMethod)
	if method == "" {
		method = planning.DurationFixed
	}
	applies := planning.FloorApplication(r.AppliesToFloors)
	if applies == "" {
		applies = planning.FloorApplicationAuto
	}
	risk := r.RiskFactor
	if risk == 0 {
		risk = 1
	}

	return &planning.BaseTask{
		ID:             r.ID,
		Name:           r.Name,
		Discipline:     r.Discipline,
		SubDiscipline:  r.SubDiscipline,
		ResourceType:   r.ResourceType,
		Type:           taskType,
		BaseDuration:   r.BaseDuration,
		UnitDuration:   r.UnitDuration,
		DurationMethod: method,

		MinCrewsNeeded:     r.MinCrewsNeeded,
		MinEquipmentNeeded: requirements,

		Predecessors:           r.Predecessors,
		PredecessorFloorOffset: r.PredecessorFloorOffset,

		FloorPolicy: planning.FloorPolicy{
			Applies:       applies,
			RepeatOnFloor: lo.FromPtrOr(r.RepeatOnFloor, true),
			GroundOnly:    r.GroundOnly,
			CustomRange:   r.CustomRange,
			StartFloor:    r.StartFloor,
			EndFloor:      r.EndFloor,
		},
		CrossFloorRepetition: r.CrossFloorRepetition,
		VerticalWorkflow:     r.VerticalWorkflow,

		CrossFloorDependencies: r.CrossFloorDependencies,
		CustomDependencies:     r.CustomDependencies,

		RiskFactor:       risk,
		Delay:            r.Delay,
		WeatherSensitive: r.WeatherSensitive,
		QualityGate:      r.QualityGate,
		Included:         lo.FromPtrOr(r.Included, true),
	}
}
