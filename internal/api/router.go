package api

import "github.com/gorilla/mux"

// SetupRoutes вешает все эндпоинты API на подроутер /api.
func (h *ApiHandler) SetupRoutes(r *mux.Router) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(SessionMiddleware(h.jwtKey))

	apiRouter.HandleFunc("/status", h.Status).Methods("GET")

	apiRouter.HandleFunc("/lessons", h.GetLessons).Methods("GET")
	apiRouter.HandleFunc("/lessons", h.CreateLesson).Methods("POST")
	apiRouter.HandleFunc("/lessons/{id:[0-9]+}", h.UpdateLesson).Methods("PUT")
	apiRouter.HandleFunc("/lessons/{id:[0-9]+}", h.DeleteLesson).Methods("DELETE")
	apiRouter.HandleFunc("/lessons/{id:[0-9]+}/complete", h.CompleteLesson).Methods("POST")
	apiRouter.HandleFunc("/lessons/{id:[0-9]+}/visit", h.VisitLesson).Methods("POST")
	apiRouter.HandleFunc("/progress", h.GetProgress).Methods("GET")

	apiRouter.HandleFunc("/theories", h.GetTheories).Methods("GET")
	apiRouter.HandleFunc("/theories", h.CreateTheory).Methods("POST")
	apiRouter.HandleFunc("/theories/{id:[0-9]+}", h.GetTheory).Methods("GET")
	apiRouter.HandleFunc("/theories/{id:[0-9]+}", h.UpdateTheory).Methods("PUT")
	apiRouter.HandleFunc("/theories/{id:[0-9]+}", h.DeleteTheory).Methods("DELETE")

	apiRouter.HandleFunc("/users", h.GetUsers).Methods("GET")
	apiRouter.HandleFunc("/users/register", h.RegisterUser).Methods("POST")
	apiRouter.HandleFunc("/users/login", h.LoginUser).Methods("POST")

	apiRouter.HandleFunc("/levels", h.GetLevels).Methods("GET")

	apiRouter.HandleFunc("/export", h.Export).Methods("GET")
	apiRouter.HandleFunc("/import", h.Import).Methods("POST")
}
