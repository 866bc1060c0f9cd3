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

package scheduling_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/duration"
	"github.com/Davidian-Abdo/planitor/pkg/expansion"
	"github.com/Davidian-Abdo/planitor/pkg/resources"
	"github.com/Davidian-Abdo/planitor/pkg/scheduling"
	"github.com/Davidian-Abdo/planitor/pkg/test"
	"github.com/Davidian-Abdo/planitor/pkg/utils/functional"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	cal       *calendar.Calendar
	workers   map[string]*planning.WorkerResource
	equipment map[string]*planning.EquipmentResource
	quantity  map[string]map[int]map[string]float64
	tasks     []*planning.Task
}

func (f *fixture) solve(opts ...functional.Option[scheduling.Options]) (*scheduling.Results, error) {
	if f.cal == nil {
		f.cal = calendar.New(monday)
	}
	if f.workers == nil {
		f.workers = test.Workers(test.Worker("Maçon", 1000))
	}
	if f.equipment == nil {
		f.equipment = map[string]*planning.EquipmentResource{}
	}
	if f.quantity == nil {
		f.quantity = map[string]map[int]map[string]float64{}
	}
	calc := duration.NewCalculator(f.workers, f.equipment, f.quantity)
	scheduler := scheduling.NewScheduler(
		f.cal,
		calc,
		resources.NewWorkerPool(f.workers),
		resources.NewEquipmentPool(f.equipment),
		f.tasks,
		opts...,
	)
	return scheduler.Solve(ctx)
}

func expand(cfg expansion.Config) []*planning.Task {
	result, err := expansion.Expand(ctx, cfg)
	Expect(err).ToNot(HaveOccurred())
	return result.Tasks
}

var _ = Describe("Scheduler", func() {
	It("should schedule a linear chain back to back on working days", func() {
		// Scenario: A(2) -> B(3) -> C(1), one zone, one floor,
		// unlimited resources, start Monday.
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("A", test.WithFixedDuration(2)),
				test.BaseTask("B", test.WithFixedDuration(3), test.WithPredecessors("A")),
				test.BaseTask("C", test.WithFixedDuration(1), test.WithPredecessors("B")),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())

		wednesday := monday.AddDate(0, 0, 2)
		nextMonday := monday.AddDate(0, 0, 7)
		nextTuesday := monday.AddDate(0, 0, 8)
		Expect(results.Schedule["A-F0-Z1"]).To(Equal(planning.Window{Start: monday, End: wednesday}))
		Expect(results.Schedule["B-F0-Z1"]).To(Equal(planning.Window{Start: wednesday, End: nextMonday}))
		Expect(results.Schedule["C-F0-Z1"]).To(Equal(planning.Window{Start: nextMonday, End: nextTuesday}))

		window, ok := results.ProjectWindow()
		Expect(ok).To(BeTrue())
		Expect(f.cal.WorkdaysBetween(window.Start, window.End)).To(Equal(6))
	})

	It("should serialize independent tasks contending for one crew", func() {
		// Scenario: X and Y both need the only crew of role R for
		// three days each.
		f := &fixture{
			workers: test.Workers(test.Worker("R", 1)),
			tasks: expand(expansion.Config{
				BaseTasks: test.BaseTasks(
					test.BaseTask("X", test.WithFixedDuration(3), test.WithResourceType("R")),
					test.BaseTask("Y", test.WithFixedDuration(3), test.WithResourceType("R")),
				),
				Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
			}),
		}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())

		x := results.Schedule["X-F0-Z1"]
		y := results.Schedule["Y-F0-Z1"]
		Expect(x.Overlaps(y)).To(BeFalse())
		Expect(y.Start).To(Equal(x.End))

		window, _ := results.ProjectWindow()
		Expect(f.cal.WorkdaysBetween(window.Start, window.End)).To(Equal(6))

		pool := resources.NewWorkerPool(f.workers)
		for name, allocs := range results.WorkerAllocations {
			for _, a := range allocs {
				pool.Allocate(a.TaskID, a.BaseID, name, a.Units, a.Window)
			}
		}
		Expect(pool.Utilization("R")).To(BeNumerically("==", 1.0))
	})

	It("should fill an equipment group from whichever member has capacity", func() {
		// Scenario: the requirement accepts E1 or E2; only E2 has a
		// unit.
		f := &fixture{
			equipment: test.EquipmentCatalog(
				test.Equipment("E1", 0),
				test.Equipment("E2", 1),
			),
			tasks: expand(expansion.Config{
				BaseTasks: test.BaseTasks(
					test.BaseTask("T", test.WithFixedDuration(2), test.WithEquipmentNeeded(
						planning.EquipmentRequirement{Members: []string{"E1", "E2"}, MinUnits: 1},
					)),
				),
				Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
			}),
		}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())
		Expect(results.EquipmentAllocations).To(HaveKey("E2"))
		Expect(results.EquipmentAllocations).ToNot(HaveKey("E1"))

		task, _ := findTask(f.tasks, "T-F0-Z1")
		Expect(task.AllocatedEquipments).To(Equal(map[string]int{"E2": 1}))
	})

	It("should start later zone groups only after the earlier group ends", func() {
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("T", test.WithFixedDuration(2), test.WithDiscipline("GrosŒuvre")),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}, {Name: "Z2", MaxFloor: 0}},
			DisciplineZones: map[string][]expansion.ZoneGroup{
				"GrosŒuvre": {{{Zone: "Z1"}}, {{Zone: "Z2"}}},
			},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())

		z1 := results.Schedule["T-F0-Z1"]
		z2 := results.Schedule["T-F0-Z2"]
		Expect(z2.Start.Before(z1.End)).To(BeFalse())
	})

	It("should chain vertical repetition floor by floor", func() {
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("S", test.WithFixedDuration(2), test.AllFloors(), test.Vertical()),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 2}},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())
		Expect(results.Schedule).To(HaveLen(3))

		window, _ := results.ProjectWindow()
		f.cal = calendar.New(monday)
		Expect(f.cal.WorkdaysBetween(window.Start, window.End)).To(Equal(6))
	})

	It("should apply predecessor delay as a calendar-day lag", func() {
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("A", test.WithFixedDuration(1), test.WithDelay(3)),
				test.BaseTask("B", test.WithFixedDuration(1), test.WithPredecessors("A")),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())

		// A ends Tuesday; three calendar days of curing put B's
		// earliest start on Friday.
		Expect(results.Schedule["A-F0-Z1"].End).To(Equal(monday.AddDate(0, 0, 1)))
		Expect(results.Schedule["B-F0-Z1"].Start).To(Equal(monday.AddDate(0, 0, 4)))
	})

	It("should commit zero-duration tasks instantaneously", func() {
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("Gate", test.WithFixedDuration(0)),
				test.BaseTask("B", test.WithFixedDuration(1), test.WithPredecessors("Gate")),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())
		gate := results.Schedule["Gate-F0-Z1"]
		Expect(gate.Start).To(Equal(gate.End))
		Expect(results.Schedule["B-F0-Z1"].Start).To(Equal(gate.End))
	})

	It("should recompute resource-calculated durations from the actual grant", func() {
		f := &fixture{
			workers: test.Workers(test.Worker("R", 2, test.WithProductivity("T", 5))),
			quantity: map[string]map[int]map[string]float64{
				"T": {0: {"Z1": 160}},
			},
			tasks: expand(expansion.Config{
				BaseTasks: test.BaseTasks(
					test.BaseTask("T", test.ResourceCalculated("R", 2)),
				),
				Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
			}),
		}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())

		// 160 / (2 crews * 5 units/h * 8 h) = 2 working days.
		w := results.Schedule["T-F0-Z1"]
		f.cal = calendar.New(monday)
		Expect(f.cal.WorkdaysBetween(w.Start, w.End)).To(Equal(2))

		task, _ := findTask(f.tasks, "T-F0-Z1")
		Expect(task.AllocatedCrews).To(Equal(2))
		Expect(task.BaseDuration).To(HaveValue(Equal(2)))
	})

	It("should accelerate resource-calculated tasks up to the profile cap", func() {
		f := &fixture{
			workers: test.Workers(test.Worker("R", 10, test.WithProductivity("T", 5))),
			quantity: map[string]map[int]map[string]float64{
				"T": {0: {"Z1": 320}},
			},
			tasks: expand(expansion.Config{
				BaseTasks: test.BaseTasks(
					test.BaseTask("T", test.ResourceCalculated("R", 2), test.WithDiscipline("Terrassement")),
				),
				Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
			}),
		}
		policy := scheduling.NewProfilePolicy(map[string]scheduling.AccelerationProfile{
			"Terrassement": {Factor: 2, MaxCrews: 4},
		})
		results, err := f.solve(scheduling.WithAcceleration(policy))
		Expect(err).ToNot(HaveOccurred())

		// 320 / (4 crews * 5 * 8) = 2 days instead of 4.
		w := results.Schedule["T-F0-Z1"]
		f.cal = calendar.New(monday)
		Expect(f.cal.WorkdaysBetween(w.Start, w.End)).To(Equal(2))
		task, _ := findTask(f.tasks, "T-F0-Z1")
		Expect(task.AllocatedCrews).To(Equal(4))
	})

	It("should produce identical schedules across runs", func() {
		build := func() *fixture {
			return &fixture{
				workers: test.Workers(test.Worker("R", 2)),
				tasks: expand(expansion.Config{
					BaseTasks: test.BaseTasks(
						test.BaseTask("A", test.WithFixedDuration(2), test.WithResourceType("R")),
						test.BaseTask("B", test.WithFixedDuration(3), test.WithResourceType("R")),
						test.BaseTask("C", test.WithFixedDuration(1), test.WithResourceType("R"), test.WithPredecessors("A")),
					),
					Zones: []planning.Zone{{Name: "Z1", MaxFloor: 1}, {Name: "Z2", MaxFloor: 0}},
				}),
			}
		}
		first, err := build().solve()
		Expect(err).ToNot(HaveOccurred())
		second, err := build().solve()
		Expect(err).ToNot(HaveOccurred())
		Expect(first.Schedule).To(Equal(second.Schedule))
	})

	It("should schedule every included instance", func() {
		f := &fixture{tasks: expand(expansion.Config{
			BaseTasks: test.BaseTasks(
				test.BaseTask("A", test.AllFloors(), test.Vertical()),
				test.BaseTask("B", test.AllFloors(), test.WithPredecessors("A")),
			),
			Zones: []planning.Zone{{Name: "Z1", MaxFloor: 3}},
		})}
		results, err := f.solve()
		Expect(err).ToNot(HaveOccurred())
		Expect(results.Schedule).To(HaveLen(len(f.tasks)))
	})

	Context("failures", func() {
		It("should fail with ResourceStarvation when capacity can never satisfy the minimum", func() {
			f := &fixture{
				workers: test.Workers(test.Worker("R", 1)),
				tasks: expand(expansion.Config{
					BaseTasks: test.BaseTasks(
						test.BaseTask("T", test.WithFixedDuration(1), test.WithResourceType("R"), test.WithMinCrews(5)),
					),
					Zones: []planning.Zone{{Name: "Z1", MaxFloor: 0}},
				}),
			}
			_, err := f.solve(scheduling.WithMaxForwardAttempts(10))
			var starved *planning.ResourceStarvationError
			Expect(errors.As(err, &starved)).To(BeTrue())
			Expect(starved.TaskID).To(Equal("T-F0-Z1"))
			Expect(starved.Attempts).To(Equal(10))
		})

		It("should fail with MissingPredecessor on a dangling reference", func() {
			f := &fixture{tasks: []*planning.Task{
				{ID: "B-F0-Z1", BaseID: "B", Type: planning.TaskTypeWorker, Predecessors: []string{"A-F0-Z1"}, Included: true},
			}}
			_, err := f.solve()
			var missing *planning.MissingPredecessorError
			Expect(errors.As(err, &missing)).To(BeTrue())
		})

		It("should fail with SchedulerStuck when the graph cycles", func() {
			f := &fixture{tasks: []*planning.Task{
				{ID: "A-F0-Z1", BaseID: "A", Type: planning.TaskTypeWorker, Predecessors: []string{"B-F0-Z1"}, Included: true, DurationMethod: planning.DurationFixed, BaseDuration: intPtr(1)},
				{ID: "B-F0-Z1", BaseID: "B", Type: planning.TaskTypeWorker, Predecessors: []string{"A-F0-Z1"}, Included: true, DurationMethod: planning.DurationFixed, BaseDuration: intPtr(1)},
			}}
			_, err := f.solve()
			var stuck *planning.SchedulerStuckError
			Expect(errors.As(err, &stuck)).To(BeTrue())
		})
	})
})

func intPtr(v int) *int {
	return &v
}

func findTask(tasks []*planning.Task, id string) (*planning.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
