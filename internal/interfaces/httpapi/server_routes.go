package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/matches", RequireAuth(verifier, http.HandlerFunc(handler.ListMatches)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RequireAdmin(h))
	}

	mux.Handle("GET /v1/admin/matches", admin(handler.AdminListMatches))
	mux.Handle("POST /v1/admin/matches", admin(handler.AdminCreateMatch))
	mux.Handle("GET /v1/admin/matches/{matchID}", admin(handler.AdminGetMatch))
	mux.Handle("PUT /v1/admin/matches/{matchID}", admin(handler.AdminUpdateMatch))
	mux.Handle("DELETE /v1/admin/matches/{matchID}", admin(handler.AdminDeleteMatch))
}
