package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/infrastructure/postgres"
	"corebank/internal/shared/auth"
	"corebank/internal/shared/config"
)

const usage = `Corebank Admin CLI - Management commands for the ledger API

Usage:
  admin <command> [options]

Commands:
  accrue       Post monthly interest to savings accounts
  set-status   Suspend, reactivate, or close an account
  mint-token   Issue an API token for a user

Examples:
  # Accrue interest for specific accounts
  admin accrue --account-id=acc-1,acc-2

  # Accrue interest for every eligible account
  admin accrue --all

  # Run with timeout
  admin accrue --all --timeout=5m

  # Suspend an account
  admin set-status --account-id=acc-1 --status=suspended

  # Issue an admin token
  admin mint-token --user-id=ops-1 --role=admin
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	// Same environment handling as the API binary.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	command := os.Args[1]

	switch command {
	case "accrue":
		runAccrue(os.Args[2:])
	case "set-status":
		runSetStatus(os.Args[2:])
	case "mint-token":
		runMintToken(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

// openStores connects to postgres and builds the repositories the commands
// share. The admin CLI always talks to the production store.
func openStores() (*postgres.DB, account.Repository, ledger.Log, *config.Config) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	logrus.Info("Connected to database")

	return db, postgres.NewAccountRepository(db), postgres.NewTransactionLog(db), cfg
}

func runAccrue(args []string) {
	fs := flag.NewFlagSet("accrue", flag.ExitOnError)

	accountIDStr := fs.String("account-id", "", "Account ID(s) to accrue (comma-separated for multiple)")
	allAccounts := fs.Bool("all", false, "Accrue every eligible account")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin accrue [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin accrue --account-id=acc-1")
		fmt.Println("  admin accrue --account-id=acc-1,acc-2")
		fmt.Println("  admin accrue --all --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *accountIDStr == "" && !*allAccounts {
		fmt.Println("Error: must specify --account-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid timeout format")
	}

	db, accountRepo, txLog, cfg := openStores()
	defer db.Close()

	engine := ledger.NewEngine(accountRepo, txLog, ledger.NewReferenceGenerator(), ledger.Options{
		LockTimeout: cfg.Engine.LockTimeout,
		MaxRetries:  cfg.Engine.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var accountIDs []string
	if *allAccounts {
		accounts, err := accountRepo.ListAccruable(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to list accruable accounts")
		}
		for _, acc := range accounts {
			accountIDs = append(accountIDs, acc.ID)
		}
		logrus.WithField("count", len(accountIDs)).Info("Found eligible accounts")
	} else {
		for _, p := range strings.Split(*accountIDStr, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				accountIDs = append(accountIDs, p)
			}
		}
	}

	if len(accountIDs) == 0 {
		logrus.Info("No accounts to process")
		return
	}

	startTime := time.Now()
	now := time.Now()
	posted, skipped, failed := 0, 0, 0

	for _, id := range accountIDs {
		tx, err := engine.AccrueInterest(ctx, id, now)
		switch {
		case err != nil:
			failed++
			logrus.WithField("account_id", id).WithError(err).Error("Accrual failed")
		case tx == nil:
			skipped++
		default:
			posted++
			fmt.Printf("  %s: +%d minor units (ref %s)\n", id, tx.Amount, tx.ReferenceNumber)
		}
	}

	fmt.Printf("\n=== Accrual sweep ===\n")
	fmt.Printf("  Posted:  %d\n", posted)
	fmt.Printf("  Skipped: %d (period already covered or zero interest)\n", skipped)
	fmt.Printf("  Failed:  %d\n", failed)
	logrus.WithField("elapsed", time.Since(startTime).String()).Info("Accrual sweep completed")

	if failed > 0 {
		os.Exit(1)
	}
}

func runSetStatus(args []string) {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)

	accountID := fs.String("account-id", "", "Account ID to update")
	status := fs.String("status", "", "New status: active, suspended, or closed")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *accountID == "" || *status == "" {
		fmt.Println("Error: --account-id and --status are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	db, accountRepo, _, _ := openStores()
	defer db.Close()

	svc := account.NewService(accountRepo, account.NewNumberGenerator())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	acc, err := svc.SetStatus(ctx, *accountID, account.Status(*status))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to change status")
	}

	fmt.Printf("Account %s (%s) is now %s\n", acc.ID, acc.Number, acc.Status)
}

func runMintToken(args []string) {
	fs := flag.NewFlagSet("mint-token", flag.ExitOnError)

	userID := fs.String("user-id", "", "User ID the token identifies")
	role := fs.String("role", "customer", "Token role: customer or admin")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userID == "" {
		fmt.Println("Error: --user-id is required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	token, err := auth.NewJWT(cfg.JWT.Secret).Generate(*userID, *role)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to generate token")
	}

	fmt.Println(token)
}
