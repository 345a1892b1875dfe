package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dreamSyncAPI/handlers"
	"dreamSyncAPI/internal/celebration"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/diaryform"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
	"dreamSyncAPI/internal/question"
	"dreamSyncAPI/internal/seed"
	"dreamSyncAPI/middleware"
	"dreamSyncAPI/services"
)

var (
	logger *zap.SugaredLogger

	goalService        *services.GoalService
	celebrationService *services.CelebrationService
	entryService       *services.SleepEntryService
	questionService    *services.QuestionService
	userService        *services.UserService
	relationService    *services.RelationService
	sessionService     *services.SessionService
	messageService     *services.MessageService
	appointmentService *services.AppointmentService
	draftStore         diaryform.DraftStore
	draftStoreCloser   func() error
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger = zl.Sugar()

	data, err := seed.Load()
	if err != nil {
		logger.Fatalw("Failed to load seed data", "error", err)
	}

	goals := memstore.NewTable(func(g goal.Goal) int { return g.ID })
	goals.Seed(data.Goals)
	assignments := memstore.NewTable(func(a goal.Assignment) int { return a.ID })
	assignments.Seed(data.Assignments)
	progress := memstore.NewTable(func(p goal.Progress) int { return p.ID })
	progress.Seed(data.Progress)
	celebrations := memstore.NewTable(func(c celebration.Celebration) int { return c.ID })
	celebrations.Seed(data.Celebrations)
	sleepEntries := memstore.NewTable(func(e diary.SleepEntry) int { return e.ID })
	sleepEntries.Seed(data.SleepEntries)
	questions := memstore.NewTable(func(q question.Question) int { return q.ID })
	questions.Seed(data.Questions)
	users := memstore.NewTable(func(u portal.User) int { return u.ID })
	users.Seed(data.Users)
	relations := memstore.NewTable(func(rel portal.Relation) int { return rel.ID })
	relations.Seed(data.Relations)
	sessions := memstore.NewTable(func(s portal.Session) int { return s.ID })
	sessions.Seed(data.Sessions)
	messages := memstore.NewTable(func(m portal.Message) int { return m.ID })
	messages.Seed(data.Messages)
	appointments := memstore.NewTable(func(a portal.Appointment) int { return a.ID })
	appointments.Seed(data.Appointments)

	goalService = services.NewGoalService(goals, assignments, progress, logger)
	celebrationService = services.NewCelebrationService(celebrations, goalService, logger)
	entryService = services.NewSleepEntryService(sleepEntries)
	questionService = services.NewQuestionService(questions, sleepEntries, logger)
	userService = services.NewUserService(users)
	relationService = services.NewRelationService(relations)
	sessionService = services.NewSessionService(sessions)
	messageService = services.NewMessageService(messages)
	appointmentService = services.NewAppointmentService(appointments)

	if path := os.Getenv("DRAFT_DB_PATH"); path != "" {
		store, err := diaryform.OpenSQLiteDraftStore(path)
		if err != nil {
			logger.Fatalw("Failed to open draft database", "path", path, "error", err)
		}
		draftStore = store
		draftStoreCloser = store.Close
		logger.Infow("Draft store backed by sqlite", "path", path)
	} else {
		draftStore = diaryform.NewMemoryDraftStore()
		logger.Info("Draft store in memory, drafts will not survive restarts")
	}

	middleware.InitPrometheus()
}

func main() {
	defer logger.Sync()
	defer func() {
		if draftStoreCloser != nil {
			if err := draftStoreCloser(); err != nil {
				logger.Errorw("Failed to close draft store", "error", err)
			}
		}
	}()

	goalHandler := handlers.NewGoalHandler(goalService, celebrationService)
	celebrationHandler := handlers.NewCelebrationHandler(celebrationService)
	sleepEntryHandler := handlers.NewSleepEntryHandler(entryService, draftStore)
	questionHandler := handlers.NewQuestionHandler(questionService)
	userHandler := handlers.NewUserHandler(userService)
	relationHandler := handlers.NewRelationHandler(relationService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	messageHandler := handlers.NewMessageHandler(messageService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if store, ok := draftStore.(*diaryform.SQLiteDraftStore); ok {
		diaryform.StartDraftSweeper(sweepCtx, store, time.Hour, logger)
	}

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "dreamSync-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.IdentityMiddleware)

	api.HandleFunc("/me", userHandler.GetMe).Methods("GET")

	api.HandleFunc("/users", userHandler.GetUsers).Methods("GET")
	api.HandleFunc("/users", userHandler.CreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", userHandler.GetUser).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.UpdateUser).Methods("PUT")
	api.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods("DELETE")

	api.HandleFunc("/goals", goalHandler.GetGoals).Methods("GET")
	api.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	api.HandleFunc("/goals/active", goalHandler.GetActiveGoals).Methods("GET")
	api.HandleFunc("/goals/assignments", goalHandler.GetAssignments).Methods("GET")
	api.HandleFunc("/goals/category/{category}", goalHandler.GetGoalsByCategory).Methods("GET")
	api.HandleFunc("/goals/{id}", goalHandler.GetGoal).Methods("GET")
	api.HandleFunc("/goals/{id}", goalHandler.UpdateGoal).Methods("PUT")
	api.HandleFunc("/goals/{id}", goalHandler.DeleteGoal).Methods("DELETE")
	api.HandleFunc("/goals/{id}/assign", goalHandler.AssignGoal).Methods("POST")
	api.HandleFunc("/goals/{id}/progress", goalHandler.GetGoalProgress).Methods("GET")
	api.HandleFunc("/goals/{id}/stats", goalHandler.GetGoalStats).Methods("GET")

	api.HandleFunc("/clients/{clientId}/goals", goalHandler.GetClientGoals).Methods("GET")
	api.HandleFunc("/clients/{clientId}/goals/check-in", goalHandler.BulkCheckIn).Methods("POST")
	api.HandleFunc("/clients/{clientId}/goals/stats", goalHandler.GetClientStats).Methods("GET")
	api.HandleFunc("/clients/{clientId}/goals/{goalId}/progress", goalHandler.RecordProgress).Methods("POST")
	api.HandleFunc("/clients/{clientId}/goals/{goalId}/progress", goalHandler.GetClientGoalProgress).Methods("GET")
	api.HandleFunc("/clients/{clientId}/goals/{goalId}/dependencies", goalHandler.CheckDependencies).Methods("GET")
	api.HandleFunc("/clients/{clientId}/progress", goalHandler.GetClientProgress).Methods("GET")

	api.HandleFunc("/celebrations", celebrationHandler.GetCelebrations).Methods("GET")
	api.HandleFunc("/celebrations/viewed", celebrationHandler.BulkMarkAsViewed).Methods("PUT")
	api.HandleFunc("/celebrations/{id}/viewed", celebrationHandler.MarkAsViewed).Methods("PUT")
	api.HandleFunc("/clients/{clientId}/celebrations", celebrationHandler.GetClientCelebrations).Methods("GET")
	api.HandleFunc("/clients/{clientId}/celebrations/unviewed", celebrationHandler.GetUnviewedCelebrations).Methods("GET")
	api.HandleFunc("/clients/{clientId}/achievements/stats", celebrationHandler.GetAchievementStats).Methods("GET")

	api.HandleFunc("/sleep-entries", sleepEntryHandler.GetEntries).Methods("GET")
	api.HandleFunc("/sleep-entries", sleepEntryHandler.CreateEntry).Methods("POST")
	api.HandleFunc("/sleep-entries/validate", sleepEntryHandler.ValidateEntry).Methods("POST")
	api.HandleFunc("/sleep-entries/{id}", sleepEntryHandler.GetEntry).Methods("GET")
	api.HandleFunc("/sleep-entries/{id}", sleepEntryHandler.UpdateEntry).Methods("PUT")
	api.HandleFunc("/sleep-entries/{id}", sleepEntryHandler.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/clients/{clientId}/sleep-entries", sleepEntryHandler.GetClientEntries).Methods("GET")
	api.HandleFunc("/clients/{clientId}/sleep-entries/draft", sleepEntryHandler.GetDraft).Methods("GET")
	api.HandleFunc("/clients/{clientId}/sleep-entries/draft", sleepEntryHandler.SaveDraft).Methods("PUT")
	api.HandleFunc("/clients/{clientId}/sleep-entries/draft", sleepEntryHandler.ClearDraft).Methods("DELETE")

	api.HandleFunc("/questions", questionHandler.GetQuestions).Methods("GET")
	api.HandleFunc("/questions", questionHandler.CreateQuestion).Methods("POST")
	api.HandleFunc("/questions/active", questionHandler.GetActiveQuestions).Methods("GET")
	api.HandleFunc("/questions/archived", questionHandler.GetArchivedQuestions).Methods("GET")
	api.HandleFunc("/questions/reorder", questionHandler.ReorderQuestions).Methods("PUT")
	api.HandleFunc("/questions/{id}", questionHandler.GetQuestion).Methods("GET")
	api.HandleFunc("/questions/{id}", questionHandler.UpdateQuestion).Methods("PUT")
	api.HandleFunc("/questions/{id}", questionHandler.DeleteQuestion).Methods("DELETE")
	api.HandleFunc("/questions/{id}/archive", questionHandler.ArchiveQuestion).Methods("PUT")
	api.HandleFunc("/questions/{id}/activate", questionHandler.ActivateQuestion).Methods("PUT")

	api.HandleFunc("/relations", relationHandler.GetRelations).Methods("GET")
	api.HandleFunc("/relations", relationHandler.CreateRelation).Methods("POST")
	api.HandleFunc("/relations/{id}/end", relationHandler.EndRelation).Methods("PUT")
	api.HandleFunc("/coaches/{coachId}/relations", relationHandler.GetCoachRelations).Methods("GET")
	api.HandleFunc("/clients/{clientId}/relations", relationHandler.GetClientRelations).Methods("GET")

	api.HandleFunc("/sessions", sessionHandler.GetSessions).Methods("GET")
	api.HandleFunc("/sessions", sessionHandler.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.UpdateSession).Methods("PUT")
	api.HandleFunc("/sessions/{id}", sessionHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/coaches/{coachId}/sessions", sessionHandler.GetCoachSessions).Methods("GET")
	api.HandleFunc("/clients/{clientId}/sessions", sessionHandler.GetClientSessions).Methods("GET")

	api.HandleFunc("/messages", messageHandler.GetMessages).Methods("GET")
	api.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/messages/{id}/read", messageHandler.MarkAsRead).Methods("PUT")
	api.HandleFunc("/messages/conversation/{userA}/{userB}", messageHandler.GetConversation).Methods("GET")
	api.HandleFunc("/users/{userId}/messages/unread-count", messageHandler.GetUnreadCount).Methods("GET")

	api.HandleFunc("/appointments", appointmentHandler.GetAppointments).Methods("GET")
	api.HandleFunc("/appointments", appointmentHandler.CreateAppointment).Methods("POST")
	api.HandleFunc("/appointments/{id}", appointmentHandler.GetAppointment).Methods("GET")
	api.HandleFunc("/appointments/{id}", appointmentHandler.DeleteAppointment).Methods("DELETE")
	api.HandleFunc("/appointments/{id}/status", appointmentHandler.SetAppointmentStatus).Methods("PUT")
	api.HandleFunc("/coaches/{coachId}/appointments", appointmentHandler.GetCoachAppointments).Methods("GET")
	api.HandleFunc("/clients/{clientId}/appointments", appointmentHandler.GetClientAppointments).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "X-User-Id", "X-User-Role", "X-Request-Id"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "X-Request-Id"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infow("Starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Error starting server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	logger.Infow("Got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server shutdown error", "error", err)
	}

	logger.Info("Server shutdown complete")
}
