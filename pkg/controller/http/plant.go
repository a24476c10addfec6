package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
)

func (s *Server) listPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.uc.Plant.ListPlants(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	if plants == nil {
		plants = []*model.Plant{}
	}
	writeJSON(w, r, http.StatusOK, plants)
}

func (s *Server) createPlant(w http.ResponseWriter, r *http.Request) {
	var input model.PlantInput
	if err := decodeJSON(r, &input); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	plant, err := s.uc.Plant.CreatePlant(r.Context(), input)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, plant)
}

func (s *Server) getPlant(w http.ResponseWriter, r *http.Request) {
	plant, err := s.uc.Plant.GetPlant(r.Context(), model.PlantID(chi.URLParam(r, "id")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, plant)
}

func (s *Server) deletePlant(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Plant.DeletePlant(r.Context(), model.PlantID(chi.URLParam(r, "id"))); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitObservation(w http.ResponseWriter, r *http.Request) {
	img, err := s.readImage(w, r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	entry, err := s.uc.Analysis.SubmitObservation(r.Context(), model.PlantID(chi.URLParam(r, "id")), img, r.FormValue("notes"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, entry)
}

func (s *Server) identifyPlant(w http.ResponseWriter, r *http.Request) {
	img, err := s.readImage(w, r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	ident, err := s.uc.Plant.IdentifyPlant(r.Context(), img)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ident)
}
