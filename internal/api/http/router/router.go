package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/propsight/propsight-server/internal/api/http/handler"
	"github.com/propsight/propsight-server/internal/api/http/middleware"
	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/service"
)

// Router assembles the HTTP routes and middleware chain.
type Router struct {
	sessionService  *service.Session
	documentService *service.Document
	secureCookie    bool
	refreshMaxAge   int
	logger          *logger.Logger
}

// New creates a Router over the session and document services.
func New(
	sessionService *service.Session,
	documentService *service.Document,
	secureCookie bool,
	refreshMaxAge int,
	logger *logger.Logger,
) *Router {
	return &Router{
		sessionService:  sessionService,
		documentService: documentService,
		secureCookie:    secureCookie,
		refreshMaxAge:   refreshMaxAge,
		logger:          logger,
	}
}

// Register builds the handler tree. Auth endpoints are public; document
// endpoints sit behind the bearer-token middleware.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.sessionService, r.logger)

	authHandler := handler.NewAuth(r.sessionService, r.secureCookie, r.refreshMaxAge, r.logger)
	documentHandler := handler.NewDocument(r.documentService, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handler)

	mux.Route("/auth", func(mux chi.Router) {
		mux.Post("/register", authHandler.Register)
		mux.Post("/login", authHandler.Login)
		mux.Post("/refresh", authHandler.Refresh)
		mux.Post("/logout", authHandler.Logout)
	})

	mux.Route("/documents", func(mux chi.Router) {
		mux.Use(authenticate.Handler)
		mux.Post("/", documentHandler.Upload)
		mux.Get("/", documentHandler.List)
		mux.Get("/{id}", documentHandler.Get)
		mux.Get("/{id}/content", documentHandler.Content)
		mux.Delete("/{id}", documentHandler.Delete)
	})

	return mux
}
