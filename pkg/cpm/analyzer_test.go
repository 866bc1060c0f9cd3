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

package cpm_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/cpm"
)

func task(id string, dur int, preds ...string) *planning.Task {
	return &planning.Task{
		ID:              id,
		BaseID:          id,
		NominalDuration: dur,
		Predecessors:    preds,
		Included:        true,
	}
}

var _ = Describe("Analyzer", func() {
	It("should analyze a linear chain", func() {
		analyzer := cpm.NewAnalyzer([]*planning.Task{
			task("A", 2),
			task("B", 3, "A"),
			task("C", 1, "B"),
		})
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(report.ProjectDuration).To(Equal(6))
		Expect(report.PerTask["A"]).To(Equal(cpm.Metrics{EarliestStart: 0, EarliestFinish: 2, LatestStart: 0, LatestFinish: 2, Float: 0, IsCritical: true}))
		Expect(report.PerTask["B"]).To(Equal(cpm.Metrics{EarliestStart: 2, EarliestFinish: 5, LatestStart: 2, LatestFinish: 5, Float: 0, IsCritical: true}))
		Expect(report.PerTask["C"]).To(Equal(cpm.Metrics{EarliestStart: 5, EarliestFinish: 6, LatestStart: 5, LatestFinish: 6, Float: 0, IsCritical: true}))
		Expect(report.CriticalPaths).To(Equal([][]string{{"A", "B", "C"}}))
	})

	It("should give float to the short branch of a diamond", func() {
		analyzer := cpm.NewAnalyzer([]*planning.Task{
			task("A", 1),
			task("Long", 5, "A"),
			task("Short", 2, "A"),
			task("D", 1, "Long", "Short"),
		})
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(report.ProjectDuration).To(Equal(7))
		Expect(report.PerTask["Long"].Float).To(BeZero())
		Expect(report.PerTask["Short"].Float).To(Equal(3))
		Expect(report.PerTask["Short"].IsCritical).To(BeFalse())
		Expect(report.CriticalPaths).To(Equal([][]string{{"A", "Long", "D"}}))
	})

	It("should enumerate every maximal critical path", func() {
		analyzer := cpm.NewAnalyzer([]*planning.Task{
			task("A", 1),
			task("B1", 2, "A"),
			task("B2", 2, "A"),
			task("C", 1, "B1", "B2"),
		})
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(report.CriticalPaths).To(ConsistOf(
			[]string{"A", "B1", "C"},
			[]string{"A", "B2", "C"},
		))
	})

	It("should treat parallel roots as independent paths", func() {
		analyzer := cpm.NewAnalyzer([]*planning.Task{
			task("A", 4),
			task("B", 4),
		})
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(report.ProjectDuration).To(Equal(4))
		Expect(report.CriticalPaths).To(ConsistOf([]string{"A"}, []string{"B"}))
	})

	It("should satisfy float = LS - ES everywhere", func() {
		tasks := []*planning.Task{
			task("A", 2),
			task("B", 1, "A"),
			task("C", 4, "A"),
			task("D", 2, "B"),
			task("E", 1, "C", "D"),
		}
		analyzer := cpm.NewAnalyzer(tasks)
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		for _, t := range tasks {
			m := report.PerTask[t.ID]
			Expect(m.Float).To(Equal(m.LatestStart - m.EarliestStart))
			Expect(m.EarliestFinish - m.EarliestStart).To(Equal(m.LatestFinish - m.LatestStart))
		}
		Expect(report.ProjectDuration).To(Equal(lo.Max(lo.Map(tasks, func(t *planning.Task, _ int) int {
			return report.PerTask[t.ID].EarliestFinish
		}))))
	})

	It("should fail the backward pass before the forward pass ran", func() {
		analyzer := cpm.NewAnalyzer([]*planning.Task{task("A", 1)})
		err := analyzer.BackwardPass()
		var required *planning.ForwardPassRequiredError
		Expect(errors.As(err, &required)).To(BeTrue())
	})

	It("should measure realized durations from a schedule", func() {
		monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		cal := calendar.New(monday)
		// A runs Monday through Wednesday, B Wednesday to the next
		// Monday: realized durations 2 and 3.
		schedule := map[string]planning.Window{
			"A": {Start: monday, End: monday.AddDate(0, 0, 2)},
			"B": {Start: monday.AddDate(0, 0, 2), End: monday.AddDate(0, 0, 7)},
		}
		analyzer := cpm.NewAnalyzer(
			[]*planning.Task{task("A", 1), task("B", 1, "A")},
			cpm.WithRealizedDurations(schedule, cal),
		)
		report, err := analyzer.Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(report.ProjectDuration).To(Equal(5))
		Expect(report.PerTask["A"].EarliestFinish).To(Equal(2))
		Expect(report.PerTask["B"].EarliestFinish).To(Equal(5))
	})

	It("should reproduce the critical set on recomputation", func() {
		build := func() *cpm.Analyzer {
			return cpm.NewAnalyzer([]*planning.Task{
				task("A", 2),
				task("B", 3, "A"),
				task("C", 1, "A"),
				task("D", 1, "B", "C"),
			})
		}
		first, err := build().Analyze()
		Expect(err).ToNot(HaveOccurred())
		second, err := build().Analyze()
		Expect(err).ToNot(HaveOccurred())

		Expect(first.CriticalPaths).To(Equal(second.CriticalPaths))
		Expect(first.PerTask).To(Equal(second.PerTask))
	})
})
