package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flemzord/tgpost/internal/poster"
	"github.com/flemzord/tgpost/internal/selection"
	"github.com/flemzord/tgpost/internal/telegram"
)

// maxSendBody bounds POST /send bodies.
const maxSendBody = 1 << 20

// SendRequest is the JSON body for POST /send.
type SendRequest struct {
	Text       string `json:"text"`
	LanguageID string `json:"language_id,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
}

// SendResponse is the JSON response for POST /send.
type SendResponse struct {
	Chunks int    `json:"chunks"`
	Sent   int    `json:"sent"`
	Error  string `json:"error,omitempty"`
}

// Selection implements poster.SelectionProvider.
func (r SendRequest) Selection() (selection.Payload, error) {
	lang := r.LanguageID
	if lang == "" {
		lang = selection.LanguageID(r.FilePath)
	}
	return selection.Payload{
		Text:       r.Text,
		LanguageID: lang,
		FileName:   selection.FileName(r.FilePath),
	}, nil
}

// handleSend returns an http.HandlerFunc for POST /send.
func (g *Gateway) handleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, SendResponse{Error: "invalid request body"})
			return
		}

		res, err := g.sender.SendSelection(r.Context(), req)
		resp := SendResponse{Chunks: res.Chunks, Sent: res.Sent}
		if err != nil {
			resp.Error = err.Error()
			writeJSON(w, statusFor(err), resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// statusFor maps a send error to an HTTP status.
func statusFor(err error) int {
	var (
		transportErr *telegram.TransportError
		apiErr       *telegram.APIError
	)
	switch {
	case errors.Is(err, poster.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, poster.ErrConfiguration), errors.Is(err, poster.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.As(err, &transportErr), errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
