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

package reporting

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

var titleCaser = cases.Title(language.French)

// Render writes the schedule table, the utilization table, and the
// critical-path summary.
func (r *ScheduleResult) Render(w io.Writer) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "Run %s", r.RunID)
	if r.ProjectName != "" {
		header.Fprintf(w, " — %s", titleCaser.String(r.ProjectName))
	}
	fmt.Fprintln(w)

	r.renderSchedule(w)
	r.renderUtilization(w)
	r.renderCriticalPaths(w)

	summary := color.New(color.FgGreen)
	summary.Fprintf(w, "%d task(s), %d working day(s), total cost %s\n",
		len(r.Schedule), r.ProjectDuration, r.TotalCost.StringFixed(2))
}

func (r *ScheduleResult) renderSchedule(w io.Writer) {
	byID := map[string]*planning.Task{}
	for _, t := range r.Tasks {
		byID[t.ID] = t
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Task", "Discipline", "Zone", "Floor", "Start", "End", "Days", "Crews", "Critical"})
	for _, id := range r.ScheduledTaskIDs() {
		window := r.Schedule[id]
		t := byID[id]
		if t == nil {
			continue
		}
		critical := ""
		if r.CPM != nil && r.CPM.PerTask[id].IsCritical {
			critical = "*"
		}
		table.Append([]string{
			id,
			t.Discipline,
			t.Zone,
			strconv.Itoa(t.Floor),
			window.Start.Format(time.DateOnly),
			window.End.Format(time.DateOnly),
			strconv.Itoa(t.NominalDuration),
			strconv.Itoa(t.AllocatedCrews),
			critical,
		})
	}
	table.Render()
}

func (r *ScheduleResult) renderUtilization(w io.Writer) {
	if len(r.ResourceUtilization) == 0 {
		return
	}
	names := make([]string, 0, len(r.ResourceUtilization))
	for name := range r.ResourceUtilization {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Resource", "Utilization"})
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%.0f%%", r.ResourceUtilization[name]*100)})
	}
	table.Render()
}

func (r *ScheduleResult) renderCriticalPaths(w io.Writer) {
	if r.CPM == nil || len(r.CPM.CriticalPaths) == 0 {
		return
	}
	emphasis := color.New(color.FgYellow)
	emphasis.Fprintf(w, "critical path(s):\n")
	for _, path := range r.CPM.CriticalPaths {
		fmt.Fprintf(w, "  %s\n", strings.Join(path, " -> "))
	}
}
