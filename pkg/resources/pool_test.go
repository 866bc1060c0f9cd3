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

package resources_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/resources"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func window(start, end int) planning.Window {
	return planning.Window{Start: day(start), End: day(end)}
}

var _ = Describe("WorkerPool", func() {
	var pool *resources.Pool
	var task *planning.Task

	BeforeEach(func() {
		pool = resources.NewWorkerPool(map[string]*planning.WorkerResource{
			"Maçon": {Name: "Maçon", Count: 4, MaxCrews: map[string]int{"CAPPED": 2}},
		})
		task = &planning.Task{
			ID:             "T-F0-Z1",
			BaseID:         "T",
			ResourceType:   "Maçon",
			Type:           planning.TaskTypeWorker,
			MinCrewsNeeded: 1,
		}
	})

	It("should offer up to capacity on an empty ledger", func() {
		Expect(pool.ComputeCrewAllocation(task, 10, window(0, 5))).To(Equal(4))
	})

	It("should offer exactly the requested count when capacity allows", func() {
		Expect(pool.ComputeCrewAllocation(task, 2, window(0, 5))).To(Equal(2))
	})

	It("should subtract peak concurrent usage over the window", func() {
		pool.Allocate("other-1", "T", "Maçon", 3, window(0, 3))
		Expect(pool.ComputeCrewAllocation(task, 4, window(0, 5))).To(Equal(1))
		// Outside the committed window the full capacity returns.
		Expect(pool.ComputeCrewAllocation(task, 4, window(3, 6))).To(Equal(4))
	})

	It("should not count non-overlapping windows against the peak", func() {
		pool.Allocate("other-1", "T", "Maçon", 2, window(0, 2))
		pool.Allocate("other-2", "T", "Maçon", 2, window(2, 4))
		// Half-open intervals: the two windows never coexist.
		Expect(pool.ComputeCrewAllocation(task, 4, window(0, 4))).To(Equal(2))
	})

	It("should honor the per-task crew cap", func() {
		capped := &planning.Task{ID: "C-F0-Z1", BaseID: "CAPPED", ResourceType: "Maçon"}
		Expect(pool.ComputeCrewAllocation(capped, 4, window(0, 5))).To(Equal(2))
	})

	It("should return zero for an unknown role", func() {
		unknown := &planning.Task{ID: "U-F0-Z1", BaseID: "U", ResourceType: "Plombier"}
		Expect(pool.ComputeCrewAllocation(unknown, 1, window(0, 5))).To(BeZero())
	})

	It("should release a task's records before reallocation", func() {
		pool.Allocate(task.ID, task.BaseID, "Maçon", 4, window(0, 5))
		Expect(pool.ComputeCrewAllocation(task, 4, window(0, 5))).To(BeZero())

		pool.Release(task.ID)
		Expect(pool.ComputeCrewAllocation(task, 4, window(0, 5))).To(Equal(4))
	})

	It("should track peak usage and utilization", func() {
		pool.Allocate("a", "T", "Maçon", 2, window(0, 3))
		pool.Allocate("b", "T", "Maçon", 1, window(2, 5))
		Expect(pool.Peak("Maçon")).To(Equal(3))
		Expect(pool.Utilization("Maçon")).To(BeNumerically("~", 0.75))
	})

	It("should snapshot the ledger without aliasing", func() {
		pool.Allocate("a", "T", "Maçon", 2, window(0, 3))
		snapshot := pool.Snapshot()
		Expect(snapshot["Maçon"]).To(HaveLen(1))

		pool.Release("a")
		Expect(snapshot["Maçon"]).To(HaveLen(1))
		Expect(pool.Snapshot()).NotTo(HaveKey("Maçon"))
	})
})

var _ = Describe("EquipmentPool", func() {
	var pool *resources.Pool

	BeforeEach(func() {
		pool = resources.NewEquipmentPool(map[string]*planning.EquipmentResource{
			"E1":   {Name: "E1", Count: 0},
			"E2":   {Name: "E2", Count: 1},
			"Grue": {Name: "Grue", Count: 2},
		})
	})

	It("should fill a requirement from a single member", func() {
		task := &planning.Task{
			ID:     "T-F0-Z1",
			BaseID: "T",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"Grue"}, MinUnits: 2},
			},
		}
		granted, _, ok := pool.ComputeEquipmentAllocation(task, window(0, 5))
		Expect(ok).To(BeTrue())
		Expect(granted).To(Equal(map[string]int{"Grue": 2}))
	})

	It("should fall through an interchangeable group in declared order", func() {
		task := &planning.Task{
			ID:     "T-F0-Z1",
			BaseID: "T",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"E1", "E2"}, MinUnits: 1},
			},
		}
		// E1 has no capacity, so the single unit comes from E2.
		granted, _, ok := pool.ComputeEquipmentAllocation(task, window(0, 5))
		Expect(ok).To(BeTrue())
		Expect(granted).To(Equal(map[string]int{"E2": 1}))
	})

	It("should split a group requirement across members", func() {
		task := &planning.Task{
			ID:     "T-F0-Z1",
			BaseID: "T",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"E2", "Grue"}, MinUnits: 3},
			},
		}
		granted, _, ok := pool.ComputeEquipmentAllocation(task, window(0, 5))
		Expect(ok).To(BeTrue())
		Expect(granted).To(Equal(map[string]int{"E2": 1, "Grue": 2}))
	})

	It("should report the starved requirement on failure", func() {
		task := &planning.Task{
			ID:     "T-F0-Z1",
			BaseID: "T",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"E1"}, MinUnits: 1},
			},
		}
		_, reason, ok := pool.ComputeEquipmentAllocation(task, window(0, 5))
		Expect(ok).To(BeFalse())
		Expect(reason).To(ContainSubstring("E1"))
	})

	It("should account for committed equipment when offering", func() {
		holder := &planning.Task{
			ID:     "H-F0-Z1",
			BaseID: "H",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"Grue"}, MinUnits: 2},
			},
		}
		granted, _, ok := pool.ComputeEquipmentAllocation(holder, window(0, 5))
		Expect(ok).To(BeTrue())
		for name, units := range granted {
			pool.Allocate(holder.ID, holder.BaseID, name, units, window(0, 5))
		}

		task := &planning.Task{
			ID:     "T-F0-Z1",
			BaseID: "T",
			MinEquipmentNeeded: []planning.EquipmentRequirement{
				{Members: []string{"Grue"}, MinUnits: 1},
			},
		}
		_, _, ok = pool.ComputeEquipmentAllocation(task, window(0, 5))
		Expect(ok).To(BeFalse())
		_, _, ok = pool.ComputeEquipmentAllocation(task, window(5, 8))
		Expect(ok).To(BeTrue())
	})
})
