package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
	"github.com/secmon-lab/plantops/pkg/utils/safe"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// decodeJSON reads a JSON request body into v. Malformed bodies are invalid input.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(errors.Join(model.ErrInvalidInput, err), "invalid JSON body")
	}
	return nil
}

// readUpload reads one file field of a multipart form. The MIME type falls back to content sniffing.
func readUpload(r *http.Request, field string, limit int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", goerr.Wrap(errors.Join(model.ErrInvalidInput, err), "missing upload", goerr.V("field", field))
	}
	defer safe.Close(r.Context(), file)

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", goerr.Wrap(errors.Join(model.ErrInvalidInput, err), "failed to read upload", goerr.V("field", field))
	}
	if int64(len(data)) > limit {
		return nil, "", goerr.Wrap(model.ErrInvalidInput, "upload too large", goerr.V("field", field), goerr.V("limit", limit))
	}

	mimeType := ""
	if ct := header.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "application/octet-stream" {
			mimeType = mt
		}
	}
	if mimeType == "" {
		mimeType = strings.SplitN(http.DetectContentType(data), ";", 2)[0]
	}
	return data, mimeType, nil
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return goerr.Wrap(errors.Join(model.ErrInvalidInput, err), "invalid multipart form")
	}
	return nil
}

func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (model.Image, error) {
	if err := s.parseMultipart(w, r); err != nil {
		return model.Image{}, err
	}
	data, mimeType, err := readUpload(r, "image", s.maxUploadBytes)
	if err != nil {
		return model.Image{}, err
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return model.Image{}, goerr.Wrap(model.ErrInvalidInput, "upload is not an image", goerr.V("mime_type", mimeType))
	}
	return model.Image{Data: data, MIMEType: mimeType}, nil
}
