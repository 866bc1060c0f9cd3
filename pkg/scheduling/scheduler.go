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

// Package scheduling walks the task graph in topological order,
// searching for a resource-feasible start window for each task and
// committing allocations against the worker and equipment pools. The
// walk is single-threaded and deterministic: identical inputs produce
// bit-identical schedules.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/duration"
	"github.com/Davidian-Abdo/planitor/pkg/metrics"
	"github.com/Davidian-Abdo/planitor/pkg/resources"
	"github.com/Davidian-Abdo/planitor/pkg/utils/functional"
	"github.com/Davidian-Abdo/planitor/pkg/utils/logging"
)

const (
	// DefaultMaxSchedulingAttempts bounds requeues of a task whose
	// predecessors have not committed, converting livelock into an
	// explicit failure.
	DefaultMaxSchedulingAttempts = 1000
	// DefaultMaxForwardAttempts bounds how many working days the
	// window search slides forward before reporting starvation.
	DefaultMaxForwardAttempts = 365
)

type Options struct {
	MaxSchedulingAttempts int
	MaxForwardAttempts    int
	Acceleration          AccelerationPolicy
}

func WithMaxSchedulingAttempts(n int) func(Options) Options {
	return func(o Options) Options {
		o.MaxSchedulingAttempts = n
		return o
	}
}

func WithMaxForwardAttempts(n int) func(Options) Options {
	return func(o Options) Options {
		o.MaxForwardAttempts = n
		return o
	}
}

func WithAcceleration(policy AccelerationPolicy) func(Options) Options {
	return func(o Options) Options {
		o.Acceleration = policy
		return o
	}
}

// Scheduler owns the mutable scheduling state for one run: the
// schedule map, the pools, and the ready queue. The expander's tasks
// are mutated only here.
type Scheduler struct {
	calendar  *calendar.Calendar
	durations *duration.Calculator
	workers   *resources.Pool
	equipment *resources.Pool
	opts      Options

	tasks    map[string]*planning.Task
	order    []*planning.Task
	schedule map[string]planning.Window
	// precalculated marks tasks whose nominal duration is known before
	// allocation; resource-calculated tasks recompute from the actual
	// grant.
	precalculated map[string]bool
}

// Results is the outcome of a successful run.
type Results struct {
	// Schedule maps instance ids to half-open [start, end) windows
	// aligned to working days.
	Schedule             map[string]planning.Window
	WorkerAllocations    map[string][]planning.Allocation
	EquipmentAllocations map[string][]planning.Allocation
}

// ProjectWindow returns the earliest start and latest end across the
// schedule.
func (r *Results) ProjectWindow() (planning.Window, bool) {
	if len(r.Schedule) == 0 {
		return planning.Window{}, false
	}
	windows := lo.Values(r.Schedule)
	return planning.Window{
		Start: lo.MinBy(windows, func(a, b planning.Window) bool { return a.Start.Before(b.Start) }).Start,
		End:   lo.MaxBy(windows, func(a, b planning.Window) bool { return a.End.After(b.End) }).End,
	}, true
}

func NewScheduler(
	cal *calendar.Calendar,
	durations *duration.Calculator,
	workers *resources.Pool,
	equipment *resources.Pool,
	tasks []*planning.Task,
	opts ...functional.Option[Options],
) *Scheduler {
	options := functional.ResolveOptions(opts...)
	if options.MaxSchedulingAttempts == 0 {
		options.MaxSchedulingAttempts = DefaultMaxSchedulingAttempts
	}
	if options.MaxForwardAttempts == 0 {
		options.MaxForwardAttempts = DefaultMaxForwardAttempts
	}
	if options.Acceleration == nil {
		options.Acceleration = NoAcceleration{}
	}

	s := &Scheduler{
		calendar:      cal,
		durations:     durations,
		workers:       workers,
		equipment:     equipment,
		opts:          options,
		tasks:         map[string]*planning.Task{},
		schedule:      map[string]planning.Window{},
		precalculated: map[string]bool{},
	}
	for _, t := range tasks {
		if !t.Included {
			continue
		}
		s.tasks[t.ID] = t
		s.order = append(s.order, t)
	}
	return s
}

// Solve runs the topological walk. On failure the partial schedule is
// discarded and a structured error identifies the offending task.
func (s *Scheduler) Solve(ctx context.Context) (*Results, error) {
	if err := s.validateReferences(); err != nil {
		return nil, err
	}
	if err := s.precomputeDurations(); err != nil {
		s.fail("invalid_duration")
		return nil, err
	}

	predCount := map[string]int{}
	successors := map[string][]*planning.Task{}
	for _, t := range s.order {
		predCount[t.ID] = len(t.Predecessors)
		for _, pred := range t.Predecessors {
			successors[pred] = append(successors[pred], t)
		}
	}

	ready := NewQueue(lo.Filter(s.order, func(t *planning.Task, _ int) bool { return predCount[t.ID] == 0 })...)
	unscheduled := lo.SliceToMap(s.order, func(t *planning.Task) (string, struct{}) { return t.ID, struct{}{} })

	stalls := 0
	for {
		task, ok := ready.Pop()
		if !ok {
			break
		}
		if !s.predecessorsScheduled(task) {
			ready.Push(task)
			stalls++
			if stalls > s.opts.MaxSchedulingAttempts {
				s.fail("scheduler_stuck")
				return nil, &planning.SchedulerStuckError{TaskID: task.ID, Requeues: stalls}
			}
			continue
		}

		if err := s.scheduleTask(ctx, task); err != nil {
			s.fail(failureReason(err))
			return nil, err
		}
		stalls = 0
		delete(unscheduled, task.ID)
		metrics.TasksScheduledCounter.WithLabelValues(task.Discipline).Inc()

		for _, succ := range successors[task.ID] {
			predCount[succ.ID]--
			if predCount[succ.ID] == 0 {
				ready.Push(succ)
			}
		}
	}

	if len(unscheduled) > 0 {
		remaining := lo.Keys(unscheduled)
		s.fail("scheduler_stuck")
		return nil, &planning.SchedulerStuckError{TaskID: lo.Min(remaining), Requeues: stalls}
	}
	if err := s.audit(); err != nil {
		return nil, err
	}

	results := &Results{
		Schedule:             s.schedule,
		WorkerAllocations:    s.workers.Snapshot(),
		EquipmentAllocations: s.equipment.Snapshot(),
	}
	s.publishMetrics(results)
	logging.FromContext(ctx).With("tasks", len(s.schedule)).Infof("scheduled all tasks")
	return results, nil
}

func (s *Scheduler) validateReferences() (errs error) {
	for _, t := range s.order {
		for _, pred := range t.Predecessors {
			if _, ok := s.tasks[pred]; !ok {
				errs = multierr.Append(errs, &planning.MissingPredecessorError{TaskID: t.ID, PredecessorID: pred})
			}
		}
	}
	return errs
}

// precomputeDurations resolves the nominal duration of every task.
// Resource-calculated tasks get an estimate from their minimum
// requirements; the window search recomputes from the actual grant.
func (s *Scheduler) precomputeDurations() error {
	for _, t := range s.order {
		if s.durations.Precalculated(t) {
			days, err := s.durations.Precalculate(t)
			if err != nil {
				return err
			}
			t.NominalDuration = days
			s.precalculated[t.ID] = true
			continue
		}
		days, err := s.durations.FromAllocation(t, t.MinCrewsNeeded, minimalEquipment(t))
		if err != nil {
			return err
		}
		t.NominalDuration = days
	}
	return nil
}

// minimalEquipment assumes each requirement is filled entirely by its
// first declared member, the same greedy order the pool uses.
func minimalEquipment(t *planning.Task) map[string]int {
	granted := map[string]int{}
	for _, req := range t.MinEquipmentNeeded {
		if len(req.Members) > 0 {
			granted[req.Members[0]] += req.MinUnits
		}
	}
	return granted
}

func (s *Scheduler) predecessorsScheduled(t *planning.Task) bool {
	for _, pred := range t.Predecessors {
		if _, ok := s.schedule[pred]; !ok {
			return false
		}
	}
	return true
}

// earliestStart is the later of the project origin and every
// predecessor's end plus its own delay, in calendar days. Delay is a
// predecessor-side lag: a successor of several predecessors waits for
// the latest delayed end.
func (s *Scheduler) earliestStart(t *planning.Task) time.Time {
	es := s.calendar.Origin()
	for _, pred := range t.Predecessors {
		w := s.schedule[pred]
		available := s.calendar.AddCalendarDays(w.End, s.tasks[pred].Delay)
		if available.After(es) {
			es = available
		}
	}
	return es
}

func (s *Scheduler) scheduleTask(ctx context.Context, t *planning.Task) error {
	es := s.earliestStart(t)
	t.EarliestStart = lo.ToPtr(es)

	if t.NominalDuration == 0 && s.precalculated[t.ID] {
		s.commit(t, planning.Window{Start: es, End: es}, 0, nil)
		return nil
	}

	attempts := 0
	var lastReason string
	var fatal error
	err := retry.Do(
		func() error {
			attempts++
			reason, ok, err := s.tryWindow(t, es)
			if err != nil {
				fatal = err
				return retry.Unrecoverable(err)
			}
			if !ok {
				lastReason = reason
				es = s.calendar.AddWorkdays(es, 1)
				return fmt.Errorf("window infeasible for %s: %s", t.ID, reason)
			}
			return nil
		},
		retry.Attempts(uint(s.opts.MaxForwardAttempts)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	metrics.WindowSearchAttemptsHistogram.Observe(float64(attempts))
	if fatal != nil {
		return fatal
	}
	if err != nil {
		return &planning.ResourceStarvationError{TaskID: t.ID, Reason: lastReason, Attempts: attempts}
	}
	logging.FromContext(ctx).With("task", t.ID, "attempts", attempts).Debugf("committed task")
	return nil
}

// tryWindow tests feasibility of [es, es+duration) and commits on
// success. For resource-calculated tasks the duration is recomputed
// from the actual grant and the changed window re-verified before the
// commit. A non-nil error is fatal to the run.
func (s *Scheduler) tryWindow(t *planning.Task, es time.Time) (string, bool, error) {
	dur := t.NominalDuration
	window := planning.Window{Start: es, End: s.calendar.AddWorkdays(es, dur)}

	crews, equipment, reason, ok := s.offer(t, window)
	if !ok {
		return reason, false, nil
	}

	if !s.precalculated[t.ID] {
		recomputed, err := s.durations.FromAllocation(t, crews, equipment)
		if err != nil {
			return "", false, err
		}
		if recomputed != dur {
			dur = recomputed
			window = planning.Window{Start: es, End: s.calendar.AddWorkdays(es, dur)}
			crews, equipment, reason, ok = s.offer(t, window)
			if !ok {
				return reason, false, nil
			}
		}
	}

	s.commit(t, window, crews, equipment)
	return "", true, nil
}

// offer asks both pools for the largest feasible grant over the
// window without mutating state.
func (s *Scheduler) offer(t *planning.Task, window planning.Window) (int, map[string]int, string, bool) {
	var crews int
	if t.NeedsWorkers() {
		target := s.opts.Acceleration.TargetCrews(t)
		if target < t.MinCrewsNeeded {
			target = t.MinCrewsNeeded
		}
		crews = s.workers.ComputeCrewAllocation(t, target, window)
		if crews < t.MinCrewsNeeded {
			return 0, nil, fmt.Sprintf("role %s offered %d of %d crew(s)", t.ResourceType, crews, t.MinCrewsNeeded), false
		}
	}
	var equipment map[string]int
	if t.NeedsEquipment() {
		granted, reason, ok := s.equipment.ComputeEquipmentAllocation(t, window)
		if !ok {
			return 0, nil, reason, false
		}
		equipment = granted
	}
	return crews, equipment, "", true
}

// commit releases any tentative allocations for the task, records the
// final ones, and sets the task's allocation fields.
func (s *Scheduler) commit(t *planning.Task, window planning.Window, crews int, equipment map[string]int) {
	s.workers.Release(t.ID)
	s.equipment.Release(t.ID)
	if crews > 0 {
		s.workers.Allocate(t.ID, t.BaseID, t.ResourceType, crews, window)
	}
	for name, units := range equipment {
		s.equipment.Allocate(t.ID, t.BaseID, name, units, window)
	}

	days := s.calendar.WorkdaysBetween(window.Start, window.End)
	t.AllocatedCrews = crews
	t.AllocatedEquipments = equipment
	t.NominalDuration = days
	if !s.precalculated[t.ID] {
		t.BaseDuration = lo.ToPtr(days)
	}
	s.schedule[t.ID] = window
}

// audit re-checks the precedence invariant over the committed
// schedule.
func (s *Scheduler) audit() (errs error) {
	for _, t := range s.order {
		w := s.schedule[t.ID]
		for _, pred := range t.Predecessors {
			bound := s.calendar.AddCalendarDays(s.schedule[pred].End, s.tasks[pred].Delay)
			if w.Start.Before(bound) {
				errs = multierr.Append(errs, fmt.Errorf("task %s starts %s before predecessor bound %s", t.ID, w.Start.Format(time.DateOnly), bound.Format(time.DateOnly)))
			}
		}
	}
	return errs
}

func (s *Scheduler) publishMetrics(results *Results) {
	for _, name := range s.workers.Names() {
		metrics.ResourceUtilizationGauge.WithLabelValues(name, string(resources.KindWorker)).Set(s.workers.Utilization(name))
	}
	for _, name := range s.equipment.Names() {
		metrics.ResourceUtilizationGauge.WithLabelValues(name, string(resources.KindEquipment)).Set(s.equipment.Utilization(name))
	}
	if window, ok := results.ProjectWindow(); ok {
		metrics.ProjectDurationGauge.Set(float64(s.calendar.WorkdaysBetween(window.Start, window.End)))
	}
}

func (s *Scheduler) fail(reason string) {
	metrics.SchedulingFailuresCounter.WithLabelValues(reason).Inc()
}

func failureReason(err error) string {
	switch err.(type) {
	case *planning.ResourceStarvationError:
		return "resource_starvation"
	case *planning.InvalidDurationError:
		return "invalid_duration"
	case *planning.SchedulerStuckError:
		return "scheduler_stuck"
	default:
		return "internal"
	}
}
