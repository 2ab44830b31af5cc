package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/fylein/fyle-slack-app-sub000/app/controllers"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/approval"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/archive"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/database"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/metrics/counter"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/notification"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/oauth"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/router"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/security"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/slackapp"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/webhookschema"
)

func main() {
	app, manager := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("[App] Shutting down")
		manager.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[App] Shutdown failed: %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
}

func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/fyleslack to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			return path
		}
	}
	panic("Could not find project root directory")
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	if _, err := webhookschema.Load(); err != nil {
		log.Fatalf("[App] %v", err)
	}
	sealer, err := security.NewSealer(env.GetEnv("TOKEN_ENCRYPTION_KEY", ""))
	if err != nil {
		log.Fatalf("[App] %v", err)
	}

	repos := repository.NewRepositories(database.GetDB())

	slackFactory := slackapp.NewFactory(sealer)
	fyleCfg := fyle.OAuthConfigFromEnv()
	connector := fyle.NewConnector(fyleCfg, fyle.APIBaseURL(), sealer)

	dm := slackapp.NewDMSender(slackFactory, repos.User)
	dispatcher := notification.NewDispatcher(
		notification.FylerHandlers(dm),
		notification.ApproverHandlers(dm),
		notification.NewGate(repos.Preference),
		repos.User,
	)

	manager := jobqueue.GetManager()
	queue := manager.GetQueue()
	queue.RegisterHandler(jobqueue.JobTypeReportApproval,
		jobqueue.ReportApprovalHandler(approval.NewExecutor(repos.Team, repos.User, connector, slackFactory)))

	archiveEnabled := false
	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		log.Fatalf("[App] %v", err)
	}
	if archiveCfg.IsEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archiver, err := archive.NewFromConfig(ctx, archiveCfg)
		cancel()
		if err != nil {
			log.Fatalf("[App] %v", err)
		}
		queue.RegisterHandler(jobqueue.JobTypeWebhookArchive, jobqueue.WebhookArchiveHandler(archiver))
		archiveEnabled = true
	}

	metrics := counter.Default()
	services := &controllers.Services{
		Repos:          repos,
		Slack:          slackFactory,
		Fyle:           connector,
		Linker:         fyle.NewLinker(fyleCfg, fyle.APIBaseURL()),
		Installer:      oauth.NewSlackInstaller(oauth.SlackInstallConfig()),
		Queue:          queue,
		Dispatcher:     dispatcher,
		Dashboard:      cache.RedisStore{Client: cache.GetClient()},
		DashboardTTL:   env.GetEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),
		Sealer:         sealer,
		Counter:        metrics,
		ArchiveEnabled: archiveEnabled,
		StateSecret:    env.GetEnv("OAUTH_STATE_SECRET", env.GetEnv("SLACK_SIGNING_SECRET", "")),
		PublicBaseURL:  oauth.PublicBaseURL(),
	}

	basePath := findBasePath()

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     html.New(basePath+"views", ".html"),
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: basePath + "internal/pkg/webhookschema/openapi.yml",
		Path:     "docs",
		Title:    "Fyle Slack App",
	}))

	// ROUTER
	router.InstallRouter(app, services, controllers.NewOpsController(metrics, queue))

	manager.Start()
	return app, manager
}
