package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/agency-platform/internal/bulkimport"
	"github.com/Leganyst/agency-platform/internal/capacity"
	"github.com/Leganyst/agency-platform/internal/config"
	"github.com/Leganyst/agency-platform/internal/db"
	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/notify"
	"github.com/Leganyst/agency-platform/internal/repository"
)

func main() {
	// .env опционален: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// 1. Загружаем конфиги из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(appCfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 3. Репозитории (реализации на GORM).
	assignmentRepo := repository.NewGormAssignmentRepository()
	clientRepo := repository.NewGormClientRepository()
	providerRepo := repository.NewGormProviderRepository()
	schoolRepo := repository.NewGormSchoolRepository()
	jobRepo := repository.NewGormImportJobRepository()

	// 4. Ёмкостный учёт: capability-детекция один раз на старте.
	caps := capacity.DetectCapabilities(gormDB)
	used := capacity.NewUsedCounter(caps, clientRepo)
	adjuster := capacity.NewAdjuster(assignmentRepo, used, log)
	provisioner := capacity.NewProvisioner(assignmentRepo, used, appCfg.DefaultSlotsTotal, log)
	leave := capacity.NewLeaveReconciler(gormDB, assignmentRepo, used, log)

	// 5. Движок импорта и его коллабораторы.
	engine := bulkimport.NewEngine(
		gormDB,
		clientRepo,
		providerRepo,
		schoolRepo,
		jobRepo,
		assignmentRepo,
		provisioner,
		adjuster,
		bulkimport.NewCodeGenerator(clientRepo),
		notify.NewGormNotifier(gormDB),
		notify.NewGormNotes(gormDB),
		log,
	)

	// 6. Операционные подкоманды.
	ctx := context.Background()
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "migrate":
		if err := model.AutoMigrate(gormDB); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		log.Info("migrations applied")

	case "undo-import":
		fs := flag.NewFlagSet("undo-import", flag.ExitOnError)
		agency := fs.String("agency", "", "agency id")
		job := fs.String("job", "", "import job id")
		dryRun := fs.Bool("dry-run", false, "compute without mutating")
		_ = fs.Parse(args[1:])
		summary, err := engine.UndoImport(ctx, mustUUID(log, *agency), mustUUID(log, *job), *dryRun)
		if err != nil {
			log.Fatalf("undo import: %v", err)
		}
		log.WithFields(logrus.Fields{
			"eligible": summary.EligibleClients,
			"released": summary.SlotsReleased,
			"deleted":  summary.ClientsDeleted,
			"dry_run":  summary.DryRun,
		}).Info("undo finished")

	case "zero-out":
		fs := flag.NewFlagSet("zero-out", flag.ExitOnError)
		provider := fs.String("provider", "", "provider id")
		_ = fs.Parse(args[1:])
		if err := leave.ZeroOut(ctx, mustUUID(log, *provider)); err != nil {
			log.Fatalf("zero out: %v", err)
		}

	case "reconcile-return":
		fs := flag.NewFlagSet("reconcile-return", flag.ExitOnError)
		provider := fs.String("provider", "", "provider id")
		_ = fs.Parse(args[1:])
		if err := leave.ReconcileOnReturn(ctx, mustUUID(log, *provider)); err != nil {
			log.Fatalf("reconcile return: %v", err)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: core <migrate|undo-import|zero-out|reconcile-return> [flags]")
}

func mustUUID(log *logrus.Logger, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		log.Fatalf("invalid uuid %q: %v", s, err)
	}
	return id
}
