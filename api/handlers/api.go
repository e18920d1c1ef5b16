package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/api"
	"github.com/linesmerrill/clinic-messaging-api/api/scheduler"
	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/databases"
	"github.com/linesmerrill/clinic-messaging-api/messaging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// RequestTimeout bounds every /api/v1 request
const RequestTimeout = 30 * time.Second

// App stores the router, the messaging manager and the db connection, so they
// can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Manager   *messaging.Manager
	Hub       *NotificationHub
	Repo      *databases.MessagingRepository
	Scheduler *scheduler.Scheduler
	client    databases.ClientHelper
}

// MessagingOptions builds the session options from config. repo may be nil,
// in which case sessions start empty and nothing is stored.
func (a *App) MessagingOptions(repo messaging.Repository) messaging.Options {
	return messaging.Options{
		Repository:     repo,
		Publisher:      a.Hub,
		DeliveredAfter: a.Config.DeliveredAfter,
		ReadAfter:      a.Config.ReadAfter,
		DividerGap:     a.Config.DividerGap,
		PersistTimeout: api.QueryTimeout,
	}
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Hub == nil {
		a.Hub = NewNotificationHub()
	}
	if a.Manager == nil {
		a.Manager = messaging.NewManager(a.MessagingOptions(nil))
	}

	// setup go-guardian for middleware
	authn := api.NewAuthenticator(a.Config.JWTSecret)
	limiter := api.NewLimiterPool(a.Config.SendRPS, a.Config.SendBurst)

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	c := Conversation{Manager: a.Manager}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	// the socket is long lived and stays outside the request timeout
	r.Handle("/ws/messages", authn.Middleware(http.HandlerFunc(a.Hub.HandleMessagesWebSocket))).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(authn.Middleware, api.TimeoutMiddleware(RequestTimeout))

	apiCreate.Handle("/conversations", http.HandlerFunc(c.ConversationsHandler)).Methods("GET")
	apiCreate.Handle("/conversations/{conversation_id}/open", http.HandlerFunc(c.OpenConversationHandler)).Methods("POST")
	apiCreate.Handle("/conversations/{conversation_id}/thread", http.HandlerFunc(c.ThreadHandler)).Methods("GET")
	apiCreate.Handle("/thread", http.HandlerFunc(c.ActiveThreadHandler)).Methods("GET")
	apiCreate.Handle("/conversations/{conversation_id}/messages", limiter.Middleware(http.HandlerFunc(c.SendMessageHandler))).Methods("POST")
	apiCreate.Handle("/conversations/{conversation_id}/draft", http.HandlerFunc(c.SaveDraftHandler)).Methods("PUT")
	apiCreate.Handle("/conversations/{conversation_id}/draft/send", limiter.Middleware(http.HandlerFunc(c.SendDraftHandler))).Methods("POST")
	apiCreate.Handle("/messages/{message_id}/retry", limiter.Middleware(http.HandlerFunc(c.RetryMessageHandler))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database, start the
// background jobs and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
	defer cancel()
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	if err = client.Ping(ctx); err != nil {
		zap.S().With(err).Error("failed to ping database")
		return err
	}
	a.client = client
	zap.S().Info("clinic-messaging-api has connected to the database")

	a.Repo = databases.NewMessagingRepository(databases.NewDatabase(&a.Config, client))
	if err = a.Repo.EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to create indexes")
		return err
	}

	a.Hub = NewNotificationHub()
	a.Manager = messaging.NewManager(a.MessagingOptions(a.Repo))

	var notifier scheduler.Notifier
	if n := scheduler.NewSendgridNotifier(&a.Config); n != nil {
		notifier = n
	}
	a.Scheduler = scheduler.NewScheduler(&a.Config, a.Manager, a.Repo, notifier)
	if err = a.Scheduler.Start(); err != nil {
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Shutdown stops the background jobs and delivery timers and closes the
// database connection
func (a *App) Shutdown(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Manager != nil {
		a.Manager.Shutdown()
	}
	if a.client != nil {
		return a.client.Disconnect(ctx)
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
