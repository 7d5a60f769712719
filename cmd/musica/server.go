package main

import (
	"net/http"
	"strings"

	"musica/internal/app/albums"
	"musica/internal/app/profile"
	"musica/internal/app/users"
	"musica/internal/catalog"
	"musica/internal/httpapi"
	"musica/internal/mailer"
	"musica/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) http.Handler {
	var catalogOpts []catalog.ClientOption
	if cfg.CatalogBaseURL != "" {
		catalogOpts = append(catalogOpts, catalog.WithBaseURL(cfg.CatalogBaseURL))
	}
	catalogClient := catalog.NewHTTPClient(cfg.CatalogToken, catalogOpts...)

	mail := mailer.NewSMTP(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)

	userSvc := users.New(dataStore, mail, users.Config{
		Google:      cfg.googleOAuth(),
		ResetSecret: []byte(cfg.ResetSecret),
		ResetURL:    cfg.ResetURL,
	})
	albumSvc := albums.New(catalogClient, dataStore)
	profileSvc := profile.New(dataStore, catalogClient)

	handler := httpapi.New(userSvc, albumSvc, profileSvc).Routes()
	handler = httpapi.Recovery()(handler)
	handler = httpapi.RequestLogging()(handler)
	return withCORS(cfg.AllowedOrigins, handler)
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
