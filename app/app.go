package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bidding-management-api/internal/alerts"
	"bidding-management-api/internal/config"
	"bidding-management-api/internal/controller"
	"bidding-management-api/internal/repo"
	"bidding-management-api/internal/scheduler"
	"bidding-management-api/internal/service"
	"bidding-management-api/internal/taskclient"
	"bidding-management-api/pkg/http_server"
	"bidding-management-api/pkg/postgres"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo"
)

func runMigrations(postgresDB *postgres.Postgres) {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{})
	if err != nil {
		log.Fatal(err)
	}

	migrations, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	if err := migrations.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("no change made by migration scripts")
		} else {
			log.Fatal(err)
		}
	}
}

// setupNotifications wires the asynq queue and SMTP worker. Notifications are
// optional: when disabled or SMTP is unconfigured the service runs without
// them and the bid lifecycle is unaffected.
func setupNotifications(cfg *config.Config) (service.Notifier, *alerts.Notifier, *alerts.Worker) {
	if !cfg.NotificationEnabled {
		log.Println("Notifications disabled...")
		return nil, nil, nil
	}

	mailer, err := alerts.NewMailer(cfg)
	if err != nil {
		log.Printf("Notifications unavailable: %v", err)
		return nil, nil, nil
	}

	notifier := alerts.NewNotifier(cfg.RedisAddr)
	worker := alerts.NewWorker(cfg.RedisAddr, mailer)
	worker.Start()

	return notifier, notifier, worker
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Connecting database...")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		log.Fatal("Error occurred while connecting to db: ", err)
	}
	defer postgresDB.Close()

	log.Println("Running migrations...")
	runMigrations(postgresDB)

	repositories := repo.NewRepositories(postgresDB)
	taskService := taskclient.NewClient(cfg.TaskServiceURL, cfg.TaskServiceTimeout)

	notifier, notifierClient, worker := setupNotifications(cfg)

	services := service.NewServices(repositories, taskService, notifier, cfg)

	log.Println("Starting settlement scheduler...")
	sched := scheduler.New(services.Settlement)
	sched.Start()

	handler := echo.New()

	log.Println("Setup routes...")
	controller.SetupRoutesHandlers(handler, services)

	log.Println("Starting server...")
	httpServer := http_server.New(handler, cfg.ServerAddress)

	log.Println("Ready to process requests...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Println("Got signal: " + s.String())
	case err = <-httpServer.Notify():
		log.Fatal("Notify error: ", err)
	}

	log.Println("Shutting down...")
	sched.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	if notifierClient != nil {
		if err := notifierClient.Close(); err != nil {
			log.Println("Notifier close error: ", err)
		}
	}

	if err := httpServer.Shutdown(); err != nil {
		log.Fatal("Shutdown error: ", err)
	}

	log.Println("Successful shutdown")
}
