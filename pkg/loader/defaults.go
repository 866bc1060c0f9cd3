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
	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
)

// DefaultWorkers is the shipped worker catalog. User records overlay
// these entries by role name.
func DefaultWorkers() map[string]*planning.WorkerResource {
	return map[string]*planning.WorkerResource{
		"BétonArmé": {
			Name: "BétonArmé", Count: 200, HourlyRate: 18, Efficiency: 1,
			Skills: []string{"BétonArmé"},
		},
		"Ferrailleur": {
			Name: "Ferrailleur", Count: 85, HourlyRate: 18, Efficiency: 1,
			Skills: []string{"BétonArmé"},
		},
		"Topographe": {
			Name: "Topographe", Count: 5, HourlyRate: 18, Efficiency: 1,
			Skills: []string{"Topographie"},
		},
		"Maçon": {
			Name: "Maçon", Count: 84, HourlyRate: 40, Efficiency: 1,
			Skills: []string{"Maçonnerie"},
		},
		"Plaquiste": {
			Name: "Plaquiste", Count: 84, HourlyRate: 40, Efficiency: 1,
			Skills: []string{"Cloisonnement", "Faux-plafond"},
		},
		"Étanchéiste": {
			Name: "Étanchéiste", Count: 83, HourlyRate: 40, Efficiency: 1,
			Skills: []string{"Étanchéité"},
		},
		"ConducteurEngins": {
			Name: "ConducteurEngins", Count: 50, HourlyRate: 35, Efficiency: 1,
			Skills: []string{"ConduiteEngins"},
		},
		"Charpentier": {
			Name: "Charpentier", Count: 15, HourlyRate: 45, Efficiency: 1,
			Skills: []string{"Charpenterie", "StructureMétallique"},
		},
	}
}

// DefaultEquipment is the shipped equipment catalog.
func DefaultEquipment() map[string]*planning.EquipmentResource {
	return map[string]*planning.EquipmentResource{
		"GrueMobile": {
			Name: "GrueMobile", Count: 4, HourlyRate: 120, Type: "levage", Efficiency: 1,
		},
		"GrueTour": {
			Name: "GrueTour", Count: 2, HourlyRate: 150, Type: "levage", Efficiency: 1,
		},
		"Pelleteuse": {
			Name: "Pelleteuse", Count: 6, HourlyRate: 90, Type: "terrassement", Efficiency: 1,
		},
		"PompeBéton": {
			Name: "PompeBéton", Count: 3, HourlyRate: 110, Type: "bétonnage", Efficiency: 1,
		},
		"Foreuse": {
			Name: "Foreuse", Count: 2, HourlyRate: 140, Type: "fondations", Efficiency: 1,
		},
	}
}
