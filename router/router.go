package router

import (
	"net/http"
	"time"

	"smartpen/internal/auth"
	bluetoothHandler "smartpen/internal/bluetooth"
	bluetoothService "smartpen/internal/bluetooth/service"
	noteHandler "smartpen/internal/note"
	noteService "smartpen/internal/note/service"
	userHandler "smartpen/internal/user"
	userService "smartpen/internal/user/service"
	"smartpen/middleware"
	"smartpen/pkg/apperr"
	"smartpen/pkg/response"
	"smartpen/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Services are the lifecycle managers the routes dispatch to.
type Services struct {
	Users    *userService.UserService
	Notes    *noteService.NoteService
	Sessions *bluetoothService.SessionService
}

type Options struct {
	Tokens      *auth.Tokens
	Hub         *socket.Hub
	CORSOrigins []string
}

func Setup(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORSMiddleware(opts.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, apperr.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	requireAuth := middleware.AuthMiddleware(opts.Tokens)
	users := userHandler.NewUserHandler(svc.Users)
	notes := noteHandler.NewNoteHandler(svc.Notes)
	sessions := bluetoothHandler.NewSessionHandler(svc.Sessions)

	// WebSocket
	if opts.Hub != nil {
		r.With(requireAuth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(opts.Hub, w, r, middleware.UserID(r.Context()))
		})
	}

	// REST API
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
			r.With(requireAuth).Get("/me", users.Me)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", notes.GetNotes)
			r.Post("/", notes.CreateNote)
			r.Get("/{id}", notes.GetNote)
			r.Put("/{id}", notes.UpdateNote)
			r.Patch("/{id}", notes.UpdateNote)
			r.Delete("/{id}", notes.DeleteNote)
		})

		r.Route("/bluetooth", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/connect", sessions.Connect)
			r.Get("/data/{session_id}", sessions.GetData)
		})
	})

	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}
