package controllers

import (
	"net/http"

	"github.com/jacksonlee411/provider-portal/pkg/httpapi"
)

func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteRequestError(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteRequestError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
