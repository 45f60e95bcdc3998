package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the sheet API router. Photos are public so the app can
// reference them from img tags; /exec requires a token when secret is set.
func NewRouter(db *sql.DB, secret string) http.Handler {
	mux := http.NewServeMux()

	execHandler := &ExecHandler{DB: db}
	authMW := AuthMiddleware(secret)

	mux.Handle("GET /exec", authMW(http.HandlerFunc(execHandler.Get)))
	mux.Handle("POST /exec", authMW(http.HandlerFunc(execHandler.Post)))
	mux.HandleFunc("GET /photos/{id}", execHandler.GetPhoto)

	return mux
}
