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

// Package loader turns plain input records, whatever parsed them, into
// the domain catalogs the engines consume. User-supplied entries
// overlay the shipped defaults. File parsing lives outside this
// module.
package loader

// QuantityRecord is one row of the quantity matrix: physical units of
// work for a base task at (floor, zone).
type QuantityRecord struct {
	BaseID   string  `json:"baseId"`
	Zone     string  `json:"zone"`
	Floor    int     `json:"floor"`
	Quantity float64 `json:"quantity"`
}

// WorkerRecord is one row of the worker catalog.
type WorkerRecord struct {
	Name              string             `json:"name"`
	Count             int                `json:"count"`
	HourlyRate        float64            `json:"hourlyRate"`
	ProductivityRates map[string]float64 `json:"productivityRates,omitempty"`
	Skills            []string           `json:"skills,omitempty"`
	MaxCrews          map[string]int     `json:"maxCrews,omitempty"`
	Efficiency        float64            `json:"efficiency,omitempty"`
}

// EquipmentRecord is one row of the equipment catalog.
type EquipmentRecord struct {
	Name              string             `json:"name"`
	Count             int                `json:"count"`
	HourlyRate        float64            `json:"hourlyRate"`
	ProductivityRates map[string]float64 `json:"productivityRates,omitempty"`
	Type              string             `json:"type,omitempty"`
	MaxEquipment      map[string]int     `json:"maxEquipment,omitempty"`
	Efficiency        float64            `json:"efficiency,omitempty"`
}
