package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
	"github.com/secmon-lab/plantops/pkg/utils/safe"
)

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	ref := model.ImageRef(chi.URLParam(r, "ref"))
	if !ref.Valid() {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrInvalidInput, "invalid image reference", goerr.V("ref", ref)))
		return
	}

	img, err := s.images.Get(r.Context(), ref)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	// content-addressed, never changes
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+string(ref)+`"`)
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, img.Data)
}
