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

package scheduling

import (
	"math"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// AccelerationProfile scales the crew count requested for a
// discipline's tasks above the minimum, shortening resource-calculated
// durations. Constraints name conditions under which the factor clamps
// to 1.
type AccelerationProfile struct {
	Factor      float64  `json:"factor" validate:"gte=1"`
	MaxCrews    int      `json:"maxCrews" validate:"gte=0"`
	Constraints []string `json:"constraints,omitempty"`
}

// ConstraintCuringTime clamps acceleration for quality-gated tasks:
// curing cannot be compressed by adding crews.
const ConstraintCuringTime = "curing_time"

// DefaultProfileKey matches disciplines without their own profile.
const DefaultProfileKey = "default"

// AccelerationPolicy decides the crew count the scheduler requests for
// a task before the window search. It never requests below the task's
// minimum and never alters feasibility rules.
type AccelerationPolicy interface {
	TargetCrews(t *planning.Task) int
}

// NoAcceleration requests exactly the minimum crews.
type NoAcceleration struct{}

func (NoAcceleration) TargetCrews(t *planning.Task) int {
	return t.MinCrewsNeeded
}

// ProfilePolicy applies per-discipline acceleration profiles.
type ProfilePolicy struct {
	profiles map[string]AccelerationProfile
}

func NewProfilePolicy(profiles map[string]AccelerationProfile) *ProfilePolicy {
	return &ProfilePolicy{profiles: profiles}
}

func (p *ProfilePolicy) TargetCrews(t *planning.Task) int {
	profile, ok := p.profiles[t.Discipline]
	if !ok {
		profile, ok = p.profiles[DefaultProfileKey]
	}
	if !ok {
		return t.MinCrewsNeeded
	}
	factor := profile.Factor
	if factor < 1 || p.clamped(t, profile) {
		factor = 1
	}
	target := int(math.Ceil(float64(t.MinCrewsNeeded) * factor))
	if profile.MaxCrews > 0 && target > profile.MaxCrews {
		target = profile.MaxCrews
	}
	if target < t.MinCrewsNeeded {
		target = t.MinCrewsNeeded
	}
	return target
}

// clamped reports whether any profile constraint holds for the task.
// Curing time binds quality-gated work; unknown constraint names are
// advisory and never clamp.
func (p *ProfilePolicy) clamped(t *planning.Task, profile AccelerationProfile) bool {
	for _, constraint := range profile.Constraints {
		if constraint == ConstraintCuringTime && t.QualityGate {
			return true
		}
	}
	return false
}
