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

package loader

import (
	"context"

	"github.com/imdario/mergo"
	"golang.org/x/sync/errgroup"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/utils/logging"
)

// Inputs carries the already-parsed records of one run.
type Inputs struct {
	Quantities []QuantityRecord
	Workers    []WorkerRecord
	Equipment  []EquipmentRecord
}

// Catalogs is the domain view of the inputs.
type Catalogs struct {
	Workers    map[string]*planning.WorkerResource
	Equipment  map[string]*planning.EquipmentResource
	Quantities map[string]map[int]map[string]float64
}

// Load assembles the three catalogs. The builders are independent and
// run concurrently; the engines never see the catalogs until all three
// finished.
func Load(ctx context.Context, in Inputs) (*Catalogs, error) {
	catalogs := &Catalogs{}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		catalogs.Workers, err = BuildWorkers(in.Workers)
		return err
	})
	group.Go(func() error {
		var err error
		catalogs.Equipment, err = BuildEquipment(in.Equipment)
		return err
	})
	group.Go(func() error {
		catalogs.Quantities = BuildQuantityMatrix(in.Quantities)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).With(
		"workers", len(catalogs.Workers),
		"equipment", len(catalogs.Equipment),
		"quantities", len(catalogs.Quantities),
	).Debugf("loaded catalogs")
	return catalogs, nil
}

// BuildQuantityMatrix folds quantity rows into the nested
// base -> floor -> zone map. Later rows for the same key win.
func BuildQuantityMatrix(records []QuantityRecord) map[string]map[int]map[string]float64 {
	matrix := map[string]map[int]map[string]float64{}
	for _, r := range records {
		if matrix[r.BaseID] == nil {
			matrix[r.BaseID] = map[int]map[string]float64{}
		}
		if matrix[r.BaseID][r.Floor] == nil {
			matrix[r.BaseID][r.Floor] = map[string]float64{}
		}
		matrix[r.BaseID][r.Floor][r.Zone] = r.Quantity
	}
	return matrix
}

// BuildWorkers overlays worker records on the shipped defaults. A
// record sharing a default's name keeps any default field it leaves
// zero.
func BuildWorkers(records []WorkerRecord) (map[string]*planning.WorkerResource, error) {
	workers := DefaultWorkers()
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		incoming := &planning.WorkerResource{
			Name:              r.Name,
			Count:             r.Count,
			HourlyRate:        r.HourlyRate,
			ProductivityRates: r.ProductivityRates,
			Skills:            r.Skills,
			MaxCrews:          r.MaxCrews,
			Efficiency:        r.Efficiency,
		}
		if existing, ok := workers[r.Name]; ok {
			if err := mergo.Merge(incoming, existing); err != nil {
				return nil, &planning.ConfigurationError{Field: "workers", Reason: err.Error()}
			}
		}
		if incoming.Efficiency == 0 {
			incoming.Efficiency = 1
		}
		workers[r.Name] = incoming
	}
	return workers, nil
}

// BuildEquipment overlays equipment records on the shipped defaults.
func BuildEquipment(records []EquipmentRecord) (map[string]*planning.EquipmentResource, error) {
	equipment := DefaultEquipment()
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		incoming := &planning.EquipmentResource{
			Name:              r.Name,
			Count:             r.Count,
			HourlyRate:        r.HourlyRate,
			ProductivityRates: r.ProductivityRates,
			Type:              r.Type,
			MaxEquipment:      r.MaxEquipment,
			Efficiency:        r.Efficiency,
		}
		if existing, ok := equipment[r.Name]; ok {
			if err := mergo.Merge(incoming, existing); err != nil {
				return nil, &planning.ConfigurationError{Field: "equipment", Reason: err.Error()}
			}
		}
		if incoming.Efficiency == 0 {
			incoming.Efficiency = 1
		}
		equipment[r.Name] = incoming
	}
	return equipment, nil
}
