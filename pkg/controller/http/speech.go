package http

import (
	"net/http"

	"github.com/secmon-lab/plantops/pkg/utils/errutil"
	"github.com/secmon-lab/plantops/pkg/utils/safe"
)

type transcribeResponse struct {
	Text string `json:"text"`
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	audio, mimeType, err := readUpload(r, "audio", s.maxUploadBytes)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	text, err := s.uc.Speech.Transcribe(r.Context(), audio, mimeType)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transcribeResponse{Text: text})
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) speak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	audio, err := s.uc.Speech.Speak(r.Context(), req.Text)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, audio)
}
