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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Davidian-Abdo/planitor/pkg/apis/config/settings"
	"github.com/Davidian-Abdo/planitor/pkg/cpm"
	"github.com/Davidian-Abdo/planitor/pkg/duration"
	"github.com/Davidian-Abdo/planitor/pkg/expansion"
	"github.com/Davidian-Abdo/planitor/pkg/loader"
	"github.com/Davidian-Abdo/planitor/pkg/metrics"
	"github.com/Davidian-Abdo/planitor/pkg/reporting"
	"github.com/Davidian-Abdo/planitor/pkg/resources"
	"github.com/Davidian-Abdo/planitor/pkg/scheduling"
	"github.com/Davidian-Abdo/planitor/pkg/utils/logging"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate a resource-feasible schedule for a project",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().String("project", "project.json", "project definition file (base tasks, zones, sequencing)")
	scheduleCmd.Flags().String("inputs", "", "optional inputs file (quantities, worker and equipment catalogs)")
	scheduleCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address during the run")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := logging.WithLogger(context.Background(), logger.Sugar())

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			_ = http.ListenAndServe(addr, mux)
		}()
	}

	s, err := settings.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	cal, err := s.Calendar()
	if err != nil {
		return err
	}

	projectPath, _ := cmd.Flags().GetString("project")
	var project loader.ProjectDefinition
	if err := readJSON(projectPath, &project); err != nil {
		return fmt.Errorf("reading project definition, %w", err)
	}

	var inputs loader.Inputs
	if inputsPath, _ := cmd.Flags().GetString("inputs"); inputsPath != "" {
		if err := readJSON(inputsPath, &inputs); err != nil {
			return fmt.Errorf("reading inputs, %w", err)
		}
	}
	catalogs, err := loader.Load(ctx, inputs)
	if err != nil {
		return err
	}

	result, err := expansion.Expand(ctx, project.ExpansionConfig())
	if err != nil {
		return err
	}
	if _, err := expansion.Validate(ctx, result, catalogs.Workers, catalogs.Equipment, catalogs.Quantities); err != nil {
		return err
	}

	calc := duration.NewCalculator(catalogs.Workers, catalogs.Equipment, catalogs.Quantities)
	scheduler := scheduling.NewScheduler(
		cal,
		calc,
		resources.NewWorkerPool(catalogs.Workers),
		resources.NewEquipmentPool(catalogs.Equipment),
		result.Tasks,
		s.SchedulerOptions()...,
	)
	results, err := scheduler.Solve(ctx)
	if err != nil {
		return err
	}

	report, err := cpm.NewAnalyzer(result.Tasks, cpm.WithRealizedDurations(results.Schedule, cal)).Analyze()
	if err != nil {
		return err
	}

	out := reporting.NewScheduleResult(cal, result.Tasks, results, catalogs.Workers, catalogs.Equipment, report)
	out.ProjectName = project.Name
	out.Render(os.Stdout)
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
