package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/taskhub/taskhub/database"
	"github.com/taskhub/taskhub/handlers"
	"github.com/taskhub/taskhub/services"
)

func main() {
	// Load environment variables from .env file, if present
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize database
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./taskhub.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := services.NewAuthService()
	userService := database.NewUserService(db)
	projectService := database.NewProjectService(db)
	taskService := database.NewTaskService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Auth routes (public)
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/forgot-password", authHandler.ForgotPassword).Methods("POST")
	api.HandleFunc("/auth/reset-password/{token}", authHandler.ResetPassword).Methods("POST")

	// Project and task routes (protected)
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Auth)

	protected.HandleFunc("/projects", projectHandler.List).Methods("GET")
	protected.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	protected.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET")
	protected.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT")
	protected.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/projects/{id}/members", projectHandler.ListMembers).Methods("GET")
	protected.HandleFunc("/projects/{id}/members", projectHandler.AddMember).Methods("POST")
	protected.HandleFunc("/projects/{id}/members", projectHandler.RemoveMember).Methods("DELETE")

	protected.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	protected.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/tasks/search", taskHandler.Search).Methods("GET")
	protected.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	protected.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/complete", taskHandler.Complete).Methods("PATCH")
	protected.HandleFunc("/tasks/{id}/subtasks", taskHandler.Subtasks).Methods("GET")

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
