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
	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// floorRange resolves which floors a base task materializes on within
// a zone. The user's explicit floor application wins; otherwise ground
// rules, then a custom range, then the start/end interval.
func floorRange(base *planning.BaseTask, maxFloor int, ground map[string]struct{}) []int {
	isGround := base.FloorPolicy.GroundOnly || lo.HasKey(ground, base.Discipline)

	switch base.FloorPolicy.Applies {
	case planning.FloorApplicationGroundOnly:
		return []int{0}
	case planning.FloorApplicationAboveGround:
		return span(1, maxFloor)
	case planning.FloorApplicationAllFloors:
		return span(0, maxFloor)
	}

	if isGround {
		return []int{0}
	}

	var floors []int
	if len(base.FloorPolicy.CustomRange) > 0 {
		floors = lo.Filter(base.FloorPolicy.CustomRange, func(f int, _ int) bool {
			return 0 <= f && f <= maxFloor
		})
	} else {
		end := maxFloor
		if base.FloorPolicy.EndFloor != nil && *base.FloorPolicy.EndFloor < maxFloor {
			end = *base.FloorPolicy.EndFloor
		}
		floors = span(base.FloorPolicy.StartFloor, end)
	}

	if !base.FloorPolicy.RepeatOnFloor && len(floors) > 1 {
		return []int{lo.Min(floors)}
	}
	return floors
}

func span(from, to int) []int {
	if to < from {
		return nil
	}
	return lo.RangeFrom(from, to-from+1)
}
