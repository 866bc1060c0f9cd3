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

// Package expansion materializes base tasks into per-(zone, floor)
// instances and wires the predecessor edges between them. Expansion is
// deterministic: base tasks iterate in id order,
// zones in declared order, and resolved edges come out sorted.
package expansion

import (
	"context"
	"sort"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/utils/logging"
)

// ZoneEntry is one zone inside a sequencing group. ParallelWith lists
// zones from the previous group that this zone may run alongside.
type ZoneEntry struct {
	Zone         string   `json:"zone"`
	ParallelWith []string `json:"parallelWith,omitempty"`
}

// ZoneGroup is one step of a discipline's zone sequence. All zones in
// a group run in parallel; a later group's instances depend on the
// previous group's instances at the same floor.
type ZoneGroup []ZoneEntry

// Config carries every input of an expansion run. BaseTasks are
// immutable during the run.
type Config struct {
	BaseTasks map[string]*planning.BaseTask
	// Zones in declared order; the default sequencing group preserves
	// this order.
	Zones []planning.Zone
	// CrossFloorLinks maps a base id to the base ids it depends on one
	// floor below.
	CrossFloorLinks map[string][]string
	// GroundDisciplines materialize on floor 0 only.
	GroundDisciplines []string
	// DisciplineZones holds the optional per-discipline zone sequence.
	// A discipline without an entry runs all zones fully parallel.
	DisciplineZones map[string][]ZoneGroup
}

// Result is the materialized instance graph.
type Result struct {
	Tasks []*planning.Task
	ByID  map[string]*planning.Task
}

// Fingerprint hashes the instance set and its edges. Identical inputs
// expand to identical fingerprints.
func (r *Result) Fingerprint() uint64 {
	type edgeSet struct {
		ID           string
		Predecessors []string
	}
	edges := lo.Map(r.Tasks, func(t *planning.Task, _ int) edgeSet {
		preds := append([]string(nil), t.Predecessors...)
		sort.Strings(preds)
		return edgeSet{ID: t.ID, Predecessors: preds}
	})
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return lo.Must(hashstructure.Hash(edges, hashstructure.FormatV2, nil))
}

// Expand materializes every included base task across its floors and
// zones and resolves all predecessor edges. It fails fast on malformed
// configuration; graph-level validation (missing predecessors, cycles)
// happens in Validate.
func Expand(ctx context.Context, cfg Config) (*Result, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	ground := lo.SliceToMap(cfg.GroundDisciplines, func(d string) (string, struct{}) { return d, struct{}{} })
	maxFloors := lo.SliceToMap(cfg.Zones, func(z planning.Zone) (string, int) { return z.Name, z.MaxFloor })
	included := includedBaseIDs(cfg.BaseTasks)

	registry := buildRegistry(cfg, included, ground)

	result := &Result{ByID: map[string]*planning.Task{}}
	for _, baseID := range included {
		base := cfg.BaseTasks[baseID]
		groups, sequential := zoneGroupsFor(cfg, base.Discipline)

		for groupIdx, group := range groups {
			for _, zone := range group {
				maxFloor, known := maxFloors[zone.Zone]
				if !known {
					continue
				}
				for _, floor := range floorRange(base, maxFloor, ground) {
					id := planning.InstanceID(base.ID, floor, zone.Zone)
					if _, dup := result.ByID[id]; dup {
						return nil, &planning.ConfigurationError{
							Field:  "disciplineZones",
							Reason: "zone " + zone.Zone + " appears in more than one group for discipline " + base.Discipline,
						}
					}
					preds := resolveEdges(edgeContext{
						cfg:        cfg,
						base:       base,
						id:         id,
						zone:       zone,
						floor:      floor,
						registry:   registry,
						ground:     ground,
						groups:     groups,
						groupIdx:   groupIdx,
						sequential: sequential,
					})
					task := planning.NewTask(base, floor, zone.Zone, preds)
					result.Tasks = append(result.Tasks, task)
					result.ByID[id] = task
				}
			}
		}
	}

	logging.FromContext(ctx).With("instances", len(result.Tasks)).Debugf("expanded base tasks")
	return result, nil
}

func checkConfig(cfg Config) (errs error) {
	if len(cfg.BaseTasks) == 0 {
		errs = multierr.Append(errs, &planning.ConfigurationError{Field: "baseTasks", Reason: "must not be empty"})
	}
	if len(cfg.Zones) == 0 {
		errs = multierr.Append(errs, &planning.ConfigurationError{Field: "zones", Reason: "must not be empty"})
	}
	zones := map[string]struct{}{}
	for _, z := range cfg.Zones {
		if !planning.ValidZoneName(z.Name) {
			errs = multierr.Append(errs, &planning.InvalidZoneReferenceError{Zone: z.Name, Reason: "zone names must be non-empty and must not contain the floor sentinel"})
			continue
		}
		if z.MaxFloor < 0 {
			errs = multierr.Append(errs, &planning.ConfigurationError{Field: "zones", Reason: "negative max floor for zone " + z.Name})
		}
		zones[z.Name] = struct{}{}
	}
	for discipline, groups := range cfg.DisciplineZones {
		for _, group := range groups {
			for _, entry := range group {
				if _, ok := zones[entry.Zone]; !ok {
					errs = multierr.Append(errs, &planning.InvalidZoneReferenceError{
						Discipline: discipline,
						Zone:       entry.Zone,
						Reason:     "not present in the zone map",
					})
				}
			}
		}
	}
	return errs
}

func includedBaseIDs(baseTasks map[string]*planning.BaseTask) []string {
	ids := lo.Keys(lo.PickBy(baseTasks, func(_ string, b *planning.BaseTask) bool { return b.Included }))
	sort.Strings(ids)
	return ids
}

// buildRegistry precomputes every instance id that will exist, so edge
// resolution can test membership before any instance is created.
func buildRegistry(cfg Config, included []string, ground map[string]struct{}) map[string]struct{} {
	maxFloors := lo.SliceToMap(cfg.Zones, func(z planning.Zone) (string, int) { return z.Name, z.MaxFloor })
	registry := map[string]struct{}{}
	for _, baseID := range included {
		base := cfg.BaseTasks[baseID]
		groups, _ := zoneGroupsFor(cfg, base.Discipline)
		for _, group := range groups {
			for _, zone := range group {
				maxFloor, known := maxFloors[zone.Zone]
				if !known {
					continue
				}
				for _, floor := range floorRange(base, maxFloor, ground) {
					registry[planning.InstanceID(base.ID, floor, zone.Zone)] = struct{}{}
				}
			}
		}
	}
	return registry
}

func zoneGroupsFor(cfg Config, discipline string) ([]ZoneGroup, bool) {
	if groups, ok := cfg.DisciplineZones[discipline]; ok && len(groups) > 0 {
		return groups, true
	}
	all := lo.Map(cfg.Zones, func(z planning.Zone, _ int) ZoneEntry { return ZoneEntry{Zone: z.Name} })
	return []ZoneGroup{all}, false
}
