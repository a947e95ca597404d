package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

var (
	errmap map[int][]error = map[int][]error{
		http.StatusBadRequest: []error{
			ie.ErrInvalidArg,
			ie.ErrUnknownApp,
			ie.ErrUnknownPriority,
			ie.ErrNotSupported,
		},
		http.StatusNotFound: []error{
			ie.ErrNotFound,
		},
	}
)

// mapError returns the http status code for a given error, or
// http.StatusInternalServerError if the error is not recognised.
func mapError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for code, errs := range errmap {
		for _, e := range errs {
			if errors.Is(err, e) {
				return code
			}
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := mapError(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), code)
}

func writeJson(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(obj)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ack writes an error, or a positive structs.Ack
func ack(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, &structs.Ack{OK: true})
}

// splitList accepts both repeated & comma separated query values
func splitList(in []string) []string {
	out := []string{}
	for _, v := range in {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// unmarshalJson reads the body of a request and attempts to unmarshal it into the given object.
// This function write an error to the writer if an error occurs, and returns the error.
func unmarshalJson(w http.ResponseWriter, r *http.Request, obj interface{}) error {
	if r.Body == nil {
		http.Error(w, "No body", http.StatusBadRequest)
		return fmt.Errorf("no body")
	}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields() // catch unwanted fields

	err := d.Decode(obj)
	if err != nil {
		// bad JSON or unrecognized json field
		http.Error(w, err.Error(), http.StatusBadRequest)
		return fmt.Errorf("bad json: %v", err)
	}

	return nil
}
