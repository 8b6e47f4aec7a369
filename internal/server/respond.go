package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/observability"
)

type errorResponse struct {
	Code    cerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeArtifact(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeError responds with {code, message}. Internal errors are reported to
// the HTTP hooks and their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := cerrors.HTTPStatus(err)
	resp := errorResponse{Code: cerrors.GetCode(err), Message: cerrors.UserMessage(err)}
	if status == http.StatusInternalServerError {
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
		resp = errorResponse{Code: cerrors.ErrCodeInternal, Message: "internal server error"}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a size-limited JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return cerrors.New(cerrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return cerrors.New(cerrors.ErrCodeInvalidInput, "empty request body")
		}
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

func errNotFound(path string) error {
	return cerrors.New(cerrors.ErrCodeNotFound, "no route for %s", path)
}
