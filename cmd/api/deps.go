package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/infrastructure/memory"
	"corebank/internal/infrastructure/postgres"
	httphandlers "corebank/internal/interfaces/http"
	"corebank/internal/interfaces/scheduler"
	"corebank/internal/shared/auth"
	"corebank/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB // nil when the memory driver is selected

	// Handlers
	AccountHandler  *httphandlers.AccountHandler
	TransferHandler *httphandlers.TransferHandler
	AdminHandler    *httphandlers.AdminHandler

	// Auth
	JWT *auth.JWT

	// Core
	AccountRepo account.Repository
	Engine      *ledger.Engine

	Scheduler *scheduler.Scheduler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Select the persistence driver
	var (
		accountRepo account.Repository
		txLog       ledger.Log
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.New(cfg.Database.ConnectionString())
		if err != nil {
			return nil, err
		}
		logrus.Info("Connected to database")
		deps.DB = db
		accountRepo = postgres.NewAccountRepository(db)
		txLog = postgres.NewTransactionLog(db)
	case "memory":
		logrus.Warn("Using in-memory store, all state is lost on restart")
		accountRepo = memory.NewAccountRepository()
		txLog = memory.NewTransactionLog()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	deps.AccountRepo = accountRepo

	// Core services
	accountService := account.NewService(accountRepo, account.NewNumberGenerator())
	engine := ledger.NewEngine(accountRepo, txLog, ledger.NewReferenceGenerator(), ledger.Options{
		LockTimeout: cfg.Engine.LockTimeout,
		MaxRetries:  cfg.Engine.MaxRetries,
	})
	deps.Engine = engine

	// Accrual scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   scheduler.AccrualJobProvider(accountRepo, engine),
		})
		if err != nil {
			return nil, err
		}
		deps.Scheduler = sched
	} else {
		logrus.Info("Accrual scheduler is disabled")
	}

	// Auth components
	deps.JWT = auth.NewJWT(cfg.JWT.Secret)

	// Handlers
	deps.AccountHandler = httphandlers.NewAccountHandler(accountService, engine)
	deps.TransferHandler = httphandlers.NewTransferHandler(accountService, engine)

	var trigger httphandlers.AccrualTrigger
	if deps.Scheduler != nil {
		trigger = deps.Scheduler
	}
	deps.AdminHandler = httphandlers.NewAdminHandler(accountService, trigger)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
