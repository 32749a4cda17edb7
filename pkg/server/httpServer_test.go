package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/pkg/application"
)

type echoController struct{}

func (c *echoController) Key() string { return "/echo" }

func (c *echoController) Register(r *mux.Router) {
	r.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, strings.Repeat("provider ", 400))
	}).Methods(http.MethodGet)
}

func TestHTTPServer_RoutesThroughMiddlewareAndCompresses(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	app.RegisterControllers(&echoController{})
	var seen []string
	app.RegisterMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	})

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	srv := NewHTTPServer(app, notFound, nil)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "provider provider"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, []string{"/echo", "/missing"}, seen)
}
