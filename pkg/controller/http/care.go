package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
)

func (s *Server) quickAudit(w http.ResponseWriter, r *http.Request) {
	img, err := s.readImage(w, r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	result, err := s.uc.Care.QuickAudit(r.Context(), img)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type tipResponse struct {
	Species string `json:"species"`
	Tip     string `json:"tip"`
}

func (s *Server) getTip(w http.ResponseWriter, r *http.Request) {
	species := strings.TrimSpace(r.URL.Query().Get("species"))
	if species == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrInvalidInput, "species query parameter is required"))
		return
	}

	tip, err := s.uc.Care.Tip(r.Context(), species)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tipResponse{Species: species, Tip: tip})
}
