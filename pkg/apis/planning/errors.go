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
)

// The failure surface is a closed, enumerable set. Validation errors
// abort before scheduling starts; runtime errors abort the walk and
// discard the partial schedule; CPM errors are local to the analyzer.

// MissingPredecessorError reports an instance edge pointing at an id
// that was never materialized.
type MissingPredecessorError struct {
	TaskID        string
	PredecessorID string
}

func (e *MissingPredecessorError) Error() string {
	return fmt.Sprintf("task %q references missing predecessor %q", e.TaskID, e.PredecessorID)
}

// CycleDetectedError reports that no topological order exists. Remaining
// holds the ids left unordered when Kahn's algorithm stalled.
type CycleDetectedError struct {
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected, %d task(s) unorderable: %s", len(e.Remaining), strings.Join(e.Remaining, ", "))
}

// InvalidDurationError reports a computed duration that is negative or
// non-finite.
type InvalidDurationError struct {
	TaskID string
	Days   float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %v day(s) computed for task %q", e.Days, e.TaskID)
}

// ResourceStarvationError reports that the window search exhausted its
// attempt budget without finding a feasible start for the task.
type ResourceStarvationError struct {
	TaskID   string
	Reason   string
	Attempts int
}

func (e *ResourceStarvationError) Error() string {
	return fmt.Sprintf("resource starvation scheduling task %q after %d attempt(s): %s", e.TaskID, e.Attempts, e.Reason)
}

// SchedulerStuckError reports that the ready queue stopped making
// progress: a task was requeued past the stall budget with unscheduled
// predecessors.
type SchedulerStuckError struct {
	TaskID   string
	Requeues int
}

func (e *SchedulerStuckError) Error() string {
	return fmt.Sprintf("scheduler stuck on task %q after %d requeue(s)", e.TaskID, e.Requeues)
}

// ForwardPassRequiredError reports a backward pass invoked before the
// forward pass completed.
type ForwardPassRequiredError struct{}

func (e *ForwardPassRequiredError) Error() string {
	return "forward pass must complete before the backward pass"
}

// InvalidZoneReferenceError reports sequencing or dependency config
// naming a zone that does not exist, or an illegal zone name.
type InvalidZoneReferenceError struct {
	Discipline string
	Zone       string
	Reason     string
}

func (e *InvalidZoneReferenceError) Error() string {
	if e.Discipline != "" {
		return fmt.Sprintf("invalid zone reference %q in sequencing for discipline %q: %s", e.Zone, e.Discipline, e.Reason)
	}
	return fmt.Sprintf("invalid zone reference %q: %s", e.Zone, e.Reason)
}

// ConfigurationError reports malformed run configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on %q: %s", e.Field, e.Reason)
}
