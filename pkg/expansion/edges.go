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
	"sort"

	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

type edgeContext struct {
	cfg        Config
	base       *planning.BaseTask
	id         string
	zone       ZoneEntry
	floor      int
	registry   map[string]struct{}
	ground     map[string]struct{}
	groups     []ZoneGroup
	groupIdx   int
	sequential bool
}

// resolveEdges wires every predecessor edge class for one instance:
// intra-floor regular edges, predefined cross-floor links,
// user cross-floor dependencies, vertical same-task repetition,
// cross-zone group sequencing, and user custom edges. The result is
// de-duplicated, free of self-edges, and sorted.
func resolveEdges(ec edgeContext) []string {
	preds := map[string]struct{}{}
	add := func(id string) {
		if _, registered := ec.registry[id]; registered && id != ec.id {
			preds[id] = struct{}{}
		}
	}

	regularEdges(ec, add)
	crossFloorLinkEdges(ec, add)
	userCrossFloorEdges(ec, add)
	verticalEdges(ec, add)
	groupSequenceEdges(ec, add)
	customEdges(ec, add)

	out := lo.Keys(preds)
	sort.Strings(out)
	return out
}

// regularEdges resolves base-level predecessors on the same zone. The
// predecessor's floor follows its own offset, except ground-discipline
// predecessors which always sit on floor 0.
func regularEdges(ec edgeContext, add func(string)) {
	for _, predBaseID := range ec.base.Predecessors {
		predBase, ok := ec.cfg.BaseTasks[predBaseID]
		if !ok || !predBase.Included {
			continue
		}
		predFloor := ec.floor + predBase.PredecessorFloorOffset
		if predBase.FloorPolicy.GroundOnly || lo.HasKey(ec.ground, predBase.Discipline) {
			predFloor = 0
		}
		add(planning.InstanceID(predBaseID, predFloor, ec.zone.Zone))
	}
}

// crossFloorLinkEdges resolves the predefined cross-floor links: the
// listed base tasks one floor below, same zone.
func crossFloorLinkEdges(ec edgeContext, add func(string)) {
	if ec.floor == 0 {
		return
	}
	for _, predBaseID := range ec.cfg.CrossFloorLinks[ec.base.ID] {
		predBase, ok := ec.cfg.BaseTasks[predBaseID]
		if !ok || !predBase.Included {
			continue
		}
		add(planning.InstanceID(predBaseID, ec.floor-1, ec.zone.Zone))
	}
}

// userCrossFloorEdges resolves the user-extended cross-floor
// dependencies with their per-entry floor offset and optional zone
// override.
func userCrossFloorEdges(ec edgeContext, add func(string)) {
	for _, dep := range ec.base.CrossFloorDependencies {
		predFloor := ec.floor + dep.FloorOffset
		if predFloor < 0 {
			continue
		}
		zone := ec.zone.Zone
		if dep.Zone != "" {
			zone = dep.Zone
		}
		add(planning.InstanceID(dep.Target, predFloor, zone))
	}
}

// verticalEdges chains an instance to itself one floor below when the
// base task repeats vertically.
func verticalEdges(ec edgeContext, add func(string)) {
	if ec.floor > 0 && ec.base.CrossFloorRepetition && ec.base.VerticalWorkflow {
		add(planning.InstanceID(ec.base.ID, ec.floor-1, ec.zone.Zone))
	}
}

// groupSequenceEdges wires a group-sequential discipline to the
// previous group's zones at the same floor, unless the previous zone
// is declared parallel with this one.
func groupSequenceEdges(ec edgeContext, add func(string)) {
	if !ec.sequential || ec.groupIdx == 0 {
		return
	}
	for _, prev := range ec.groups[ec.groupIdx-1] {
		if lo.Contains(ec.zone.ParallelWith, prev.Zone) {
			continue
		}
		add(planning.InstanceID(ec.base.ID, ec.floor, prev.Zone))
	}
}

// customEdges resolves user custom dependencies after their zone and
// floor gates.
func customEdges(ec edgeContext, add func(string)) {
	for _, dep := range ec.base.CustomDependencies {
		if !dep.AppliesTo(ec.zone.Zone, ec.floor) {
			continue
		}
		zone := ec.zone.Zone
		if dep.Zone != "" {
			zone = dep.Zone
		}
		add(planning.InstanceID(dep.Target, ec.floor, zone))
	}
}
