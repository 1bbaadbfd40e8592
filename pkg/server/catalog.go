package server

import (
	"net/http"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

type appliancesResponse struct {
	Categories []types.CatalogCategory `json:"categories"`
	// Schedule lists the appliances that can be put on the energy budget.
	Schedule []string `json:"schedule"`
}

func (s *Server) handleAppliances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, appliancesResponse{
		Categories: types.ApplianceCatalog,
		Schedule:   types.ScheduleAppliances,
	})
}

type citiesResponse struct {
	Cities  []string `json:"cities"`
	Default string   `json:"default"`
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, citiesResponse{
		Cities:  s.cities.Names(),
		Default: s.cities.Default(),
	})
}
