package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"olympiad-platform/internal/auth"
	"olympiad-platform/internal/edition"
	"olympiad-platform/internal/enrollment"
	"olympiad-platform/internal/exam"
	"olympiad-platform/internal/marking"
	"olympiad-platform/internal/models"
	"olympiad-platform/internal/notify"
	"olympiad-platform/internal/results"
	"olympiad-platform/pkg/cache"
	"olympiad-platform/pkg/database"
	"olympiad-platform/pkg/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize database
	dbConfig := &database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.MinorProfile{},
		&models.Edition{},
		&models.EditionPhase{},
		&models.Participant{},
		&models.ParticipantSubject{},
		&models.Question{},
		&models.QuestionOption{},
		&models.ExamConfig{},
		&models.ExamConfigQuestion{},
		&models.ExamAttempt{},
		&models.AttemptAnswer{},
		&models.ManualMark{},
		&models.RankingEntry{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	redisCache := cache.NewRedisCache(os.Getenv("REDIS_ADDR"))

	// Initialize results hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	editionRepo := edition.NewRepository(db)
	enrollmentRepo := enrollment.NewRepository(db)
	examRepo := exam.NewRepository(db)
	markingRepo := marking.NewRepository(db)
	resultsRepo := results.NewRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	authService := auth.NewService(authRepo, jwtSecret)
	editionService := edition.NewService(editionRepo)
	enrollmentService := enrollment.NewService(enrollmentRepo, notify.NewLogSender())
	examService := exam.NewService(examRepo, examRepo, enrollmentRepo)
	markingService := marking.NewService(markingRepo)
	resultsService := results.NewService(resultsRepo, redisCache, wsHub)

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	editionHandler := edition.NewHandler(editionService)
	enrollmentHandler := enrollment.NewHandler(enrollmentService)
	examHandler := exam.NewHandler(examService)
	markingHandler := marking.NewHandler(markingService)
	resultsHandler := results.NewHandler(resultsService)

	// Setup router
	router := mux.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Auth routes - no JWT required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Authenticated routes
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(jwtSecret))

	// Editions: reads are open to any session, mutations are admin-only
	apiRouter.HandleFunc("/editions", editionHandler.List).Methods("GET")
	apiRouter.HandleFunc("/editions/{id}", editionHandler.Get).Methods("GET")
	apiRouter.Handle("/editions", auth.RequireAdmin(http.HandlerFunc(editionHandler.Create))).Methods("POST", "OPTIONS")
	apiRouter.Handle("/editions/{id}", auth.RequireAdmin(http.HandlerFunc(editionHandler.Update))).Methods("PUT")
	apiRouter.Handle("/editions/{id}", auth.RequireAdmin(http.HandlerFunc(editionHandler.Delete))).Methods("DELETE")

	// Enrollment
	apiRouter.HandleFunc("/enrollment", enrollmentHandler.Enrollment).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/participants", enrollmentHandler.ListParticipants).Methods("GET")
	apiRouter.HandleFunc("/participants/{id}", enrollmentHandler.GetParticipant).Methods("GET")
	apiRouter.HandleFunc("/minor-profiles", enrollmentHandler.CreateMinorProfile).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/minor-profiles", enrollmentHandler.ListMinorProfiles).Methods("GET")

	// Exam configuration and question bank (admin)
	apiRouter.Handle("/exam-configs", auth.RequireAdmin(http.HandlerFunc(examHandler.CreateConfig))).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/exam-configs", examHandler.ListConfigs).Methods("GET")
	apiRouter.Handle("/exam-configs", auth.RequireAdmin(http.HandlerFunc(examHandler.DeleteConfig))).Methods("DELETE")
	apiRouter.Handle("/questions", auth.RequireAdmin(http.HandlerFunc(examHandler.CreateQuestion))).Methods("POST", "OPTIONS")
	apiRouter.Handle("/questions", auth.RequireAdmin(http.HandlerFunc(examHandler.ListQuestions))).Methods("GET")

	// Exam attempts
	apiRouter.HandleFunc("/exam-attempts", examHandler.StartAttempt).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/exam-attempts", examHandler.UpdateAttempt).Methods("PUT")
	apiRouter.HandleFunc("/exam-attempts", examHandler.GetAttempt).Methods("GET")
	apiRouter.Handle("/exam-attempts", auth.RequireAdmin(http.HandlerFunc(examHandler.ResetAttempt))).Methods("DELETE")

	// Marking (admin)
	apiRouter.Handle("/marking/pending", auth.RequireAdmin(http.HandlerFunc(markingHandler.ListPending))).Methods("GET")
	apiRouter.Handle("/marking/marks", auth.RequireAdmin(http.HandlerFunc(markingHandler.SubmitMark))).Methods("POST", "OPTIONS")

	// Results
	apiRouter.HandleFunc("/results", resultsHandler.GetResults).Methods("GET")
	apiRouter.Handle("/results", auth.RequireAdmin(http.HandlerFunc(resultsHandler.CalculateRankings))).Methods("POST", "OPTIONS")

	// Live leaderboard feed
	router.HandleFunc("/ws/results/{editionID}/{level}/{subject}/{stage}", wsHub.HandleWebSocket)

	// Setup server with CORS handler
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown setup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}
