package router

import (
	"net/http"
	"strings"
)

// MethodOverrideParam is the query or form field HTML forms use to tunnel
// PUT, PATCH and DELETE through POST.
const MethodOverrideParam = "_method"

// MethodOverride rewrites the method of POST requests carrying _method before
// gin routes them.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			override := r.URL.Query().Get(MethodOverrideParam)
			if override == "" && isForm(r) {
				override = r.PostFormValue(MethodOverrideParam)
			}
			switch method := strings.ToUpper(strings.TrimSpace(override)); method {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}
