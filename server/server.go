package server

import (
	"crypto/tls"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/codeware/ragserver/handlers"
)

const version = "1.0.1"

func SetupRoutes(chat *handlers.ChatHandler, ingest *handlers.IngestHandler, health *handlers.HealthHandler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/query", chat).Methods("POST")
	r.Handle("/ingest", ingest).Methods("POST")
	r.Handle("/health", health).Methods("GET")

	// Service banner
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "RAG Chatbot API",
			"status":  "running",
			"version": version,
		})
	}).Methods("GET")

	return r
}

// SetupNegroni wraps the router with recovery, request logging and CORS.
func SetupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())
	n.Use(negroni.HandlerFunc(corsMiddleware))
	n.UseHandler(r)
	return n
}

func corsMiddleware(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	next(w, r)
}

// ServeProduction starts the HTTPS listener with certificates obtained
// through Let's Encrypt, plus an HTTP listener answering ACME challenges and
// redirecting everything else.
func ServeProduction(n *negroni.Negroni, domains []string, certCacheDir string) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(certCacheDir),
	}

	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:   autocertManager.GetCertificate,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":443",
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute, // generation calls can be slow
	}

	// Key and cert are provided by autocert.
	err := srv.ListenAndServeTLS("", "")
	log.Fatal(err)
}

// ServeDevelopment starts the plain HTTP listener.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
