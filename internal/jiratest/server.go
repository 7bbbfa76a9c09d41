// Package jiratest provides an in-process fake of the Jira REST endpoints the
// client exercises. It records every request so tests can assert on the
// exact method, URL and headers that reached the wire.
package jiratest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusCategories are the categories every Jira site ships with.
var StatusCategories = []map[string]any{
	{"id": 1, "key": "undefined", "colorName": "medium-gray", "name": "No Category"},
	{"id": 2, "key": "new", "colorName": "blue-gray", "name": "To Do"},
	{"id": 4, "key": "indeterminate", "colorName": "yellow", "name": "In Progress"},
	{"id": 3, "key": "done", "colorName": "green", "name": "Done"},
}

// RecordedRequest is what the server observed for one request.
type RecordedRequest struct {
	Method string
	URL    string // path and raw query
	Header http.Header
	Body   string
}

// Server is a fake Jira site. Requests must carry Authorization equal to
// ExpectedAuth unless ExpectedAuth is empty.
type Server struct {
	*httptest.Server
	Router       *chi.Mux
	ExpectedAuth string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewServer starts a fake that accepts the given Authorization header value.
// The caller must Close it.
func NewServer(expectedAuth string) *Server {
	s := &Server{
		Router:       chi.NewRouter(),
		ExpectedAuth: expectedAuth,
	}
	s.Router.Use(s.record)
	s.Router.Use(s.authenticate)
	s.mountHandlers(s.Router)
	s.Server = httptest.NewServer(s.Router)
	return s
}

func (s *Server) mountHandlers(r chi.Router) {
	r.Route("/rest/api/2", func(r chi.Router) {
		r.Get("/statuscategory", s.listStatusCategories)
		r.Get("/statuscategory/{idOrKey}", s.getStatusCategory)
		r.Get("/broken", s.broken)
		r.Get("/empty", s.empty)
		r.Get("/error", s.serverError)
		r.HandleFunc("/echo", s.echo)
	})
}

// Requests returns a copy of the recorded requests in arrival order.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			URL:    r.URL.RequestURI(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ExpectedAuth != "" && r.Header.Get("Authorization") != s.ExpectedAuth {
			sendJSON(w, http.StatusUnauthorized, map[string]any{
				"errorMessages": []string{"You are not authenticated. Authentication required to perform this operation."},
				"errors":        map[string]string{},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listStatusCategories(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(StatusCategories))
	for _, sc := range StatusCategories {
		out = append(out, s.withSelf(sc))
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) getStatusCategory(w http.ResponseWriter, r *http.Request) {
	idOrKey := chi.URLParam(r, "idOrKey")
	for _, sc := range StatusCategories {
		if sc["key"] == idOrKey || strconv.Itoa(sc["id"].(int)) == idOrKey {
			sendJSON(w, http.StatusOK, s.withSelf(sc))
			return
		}
	}
	sendJSON(w, http.StatusNotFound, map[string]any{
		"errorMessages": []string{"The status category with ID or key '" + idOrKey + "' was not found."},
		"errors":        map[string]string{},
	})
}

func (s *Server) broken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html>maintenance</html>"))
}

func (s *Server) empty(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusInternalServerError, map[string]any{
		"message": "internal server error",
	})
}

// echo returns the method, query and JSON body it received.
func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	var body any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			sendJSON(w, http.StatusBadRequest, map[string]any{
				"errorMessages": []string{"request body is not valid JSON"},
			})
			return
		}
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"method": r.Method,
		"query":  r.URL.Query(),
		"body":   body,
	})
}

func (s *Server) withSelf(sc map[string]any) map[string]any {
	out := make(map[string]any, len(sc)+1)
	for k, v := range sc {
		out[k] = v
	}
	out["self"] = s.URL + "/rest/api/2/statuscategory/" + strconv.Itoa(sc["id"].(int))
	return out
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
