package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// msgHandler decodes a message from the request body, lets prepare fill in
// path values and runs it
func msgHandler[M any, R any](run func(context.Context, *M) (R, error), prepare func(r *http.Request, msg *M)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := new(M)
		if !decodeBody(w, r, msg) {
			return
		}
		if prepare != nil {
			prepare(r, msg)
		}
		res, err := run(r.Context(), msg)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
