package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/smartsport/gateway"
	ierrors "github.com/jrsteele09/smartsport/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxFormBytes = 1 << 20

// ErrorBody is the notice rendered for any failed page action.
type ErrorBody struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string, fields map[string][]string) {
	writeJSON(w, status, errorEnvelope{Error: ErrorBody{Kind: kind, Message: message, Fields: fields}})
}

// statusForKind maps a classified backend failure onto the page response.
func statusForKind(apiErr *gateway.Error) int {
	switch apiErr.Kind {
	case gateway.KindBadRequest:
		return http.StatusBadRequest
	case gateway.KindUnauthenticated:
		return http.StatusUnauthorized
	case gateway.KindForbidden:
		return http.StatusForbidden
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindNetworkUnreachable:
		if apiErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// writeAPIError renders err as a notice without any navigation.
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *gateway.Error
	if ierrors.As(err, &apiErr) {
		writeError(w, statusForKind(apiErr), apiErr.Kind.String(), apiErr.Message, apiErr.Fields)
		return
	}
	switch {
	case ierrors.Is(err, ierrors.ErrInvalidID), ierrors.Is(err, ierrors.ErrInvalidForm):
		writeError(w, http.StatusBadRequest, gateway.KindBadRequest.String(), err.Error(), nil)
	default:
		log.Err(err).Msg("Unhandled page error")
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred", nil)
	}
}

// respondError renders a failed page load. A lost session sends the user to
// the login page; the Store has already cleared itself.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if ierrors.Is(err, gateway.ErrUnauthenticated) {
		redirectSuccess(w, r, s.guard.LoginRoute()+"?next="+url.QueryEscape(r.URL.RequestURI()))
		return
	}
	var apiErr *gateway.Error
	if ierrors.As(err, &apiErr) {
		log.Err(err).Str("path", r.URL.Path).Msg("Backend call failed")
	}
	writeAPIError(w, err)
}

// readInput returns the submitted fields from a form or a flat JSON object.
func readInput(r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, ierrors.Mark(err, ierrors.ErrInvalidForm)
		}
		return r.PostForm, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, ierrors.Mark(err, ierrors.ErrInvalidForm)
	}
	values := url.Values{}
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
		case string:
			values.Set(k, tv)
		case float64:
			values.Set(k, strconv.FormatFloat(tv, 'f', -1, 64))
		case bool:
			values.Set(k, strconv.FormatBool(tv))
		default:
			return nil, ierrors.Wrapf(ierrors.ErrInvalidForm, "field %s", k)
		}
	}
	return values, nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, ierrors.Wrapf(ierrors.ErrInvalidID, "id %q", raw)
	}
	return id, nil
}
