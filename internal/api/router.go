package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyhub/portal/internal/api/handler"
	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/asset"
	"github.com/studyhub/portal/internal/auth"
	"github.com/studyhub/portal/internal/book"
	"github.com/studyhub/portal/internal/gate"
	"github.com/studyhub/portal/internal/listing"
	"github.com/studyhub/portal/internal/pastpaper"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Version      string
	HealthChecks map[string]handler.Pinger
	OpenAPISpec  []byte

	Sessions    middleware.SessionResolver
	Roles       auth.RoleReader
	Policy      gate.Policy
	AuthService *auth.Service

	Books             book.Repository
	BookWorkflow      *asset.Workflow[*book.Book]
	PastPapers        pastpaper.Repository
	PastPaperWorkflow *asset.Workflow[*pastpaper.PastPaper]
	Listings          listing.Repository
	MaxUploadBytes    int64
}

// NewRouter creates and configures a Chi router with all middleware and routes.
// Operational endpoints sit outside the access gate; every page and API route
// is served behind it.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.HealthChecks, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	bookHandler := handler.NewBookHandler(deps.Books, deps.BookWorkflow, deps.MaxUploadBytes)
	paperHandler := handler.NewPastPaperHandler(deps.PastPapers, deps.PastPaperWorkflow, deps.MaxUploadBytes)
	listingHandler := handler.NewListingHandler(deps.Listings)
	profileHandler := handler.NewProfileHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.AuthService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Gate(deps.Sessions, deps.Roles, deps.Policy))

		r.Get("/books", bookHandler.List)
		r.Get("/pastpapers", paperHandler.List)
		r.Get("/pastpapers/{id}", paperHandler.Get)
		r.Get("/jobs", listingHandler.List(listing.Jobs))
		r.Get("/jobs/{id}", listingHandler.Get(listing.Jobs))
		r.Get("/institutions", listingHandler.List(listing.Institutions))
		r.Get("/institutions/{id}", listingHandler.Get(listing.Institutions))
		r.Get("/admissions", listingHandler.List(listing.Institutions))
		r.Get("/competitions", listingHandler.List(listing.Competitions))
		r.Get("/competitions/{id}", listingHandler.Get(listing.Competitions))
		r.Get("/blog", listingHandler.List(listing.Posts))
		r.Get("/blog/{slug}", listingHandler.Post)
		r.Get("/search", listingHandler.Search)

		// Protected prefixes are mounted as subrouters so every path under
		// them, routed or not, passes the gate.
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.RequireIdentity())
			r.NotFound(handler.NotFound)
			r.Get("/", profileHandler.ServeHTTP)
			r.Get("/profile", profileHandler.ServeHTTP)
			r.Patch("/profile", profileHandler.Update)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(middleware.RequireIdentity())
			r.NotFound(handler.NotFound)
			r.Get("/", profileHandler.ServeHTTP)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.NotFound(handler.NotFound)

			r.Route("/books", func(r chi.Router) {
				r.Get("/", bookHandler.List)
				r.Post("/", bookHandler.Create)
				r.Get("/{id}", bookHandler.Get)
				r.Put("/{id}", bookHandler.Update)
				r.Delete("/{id}", bookHandler.Delete)
			})

			r.Route("/pastpapers", func(r chi.Router) {
				r.Get("/", paperHandler.List)
				r.Post("/", paperHandler.Create)
				r.Get("/{id}", paperHandler.Get)
				r.Put("/{id}", paperHandler.Update)
				r.Delete("/{id}", paperHandler.Delete)
			})

			r.Get("/users", userHandler.List)
			r.Patch("/users/{id}/role", userHandler.SetRole)

			r.Get("/{kind}", listingHandler.AdminList)
			r.Post("/{kind}", listingHandler.AdminCreate)
			r.Put("/{kind}/{id}", listingHandler.AdminUpdate)
			r.Delete("/{kind}/{id}", listingHandler.AdminDelete)
		})
	})

	return r
}
