package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	ledgerrepo "github.com/kwachasoft/coopfin/internal/ledger/adapter/repo"
	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	loanrepo "github.com/kwachasoft/coopfin/internal/loan/adapter/repo"
	loansvc "github.com/kwachasoft/coopfin/internal/loan/service"
	"github.com/kwachasoft/coopfin/internal/platform/database"
	"github.com/kwachasoft/coopfin/internal/platform/logger"
	savingsrepo "github.com/kwachasoft/coopfin/internal/savings/adapter/repo"
	savingssvc "github.com/kwachasoft/coopfin/internal/savings/service"
)

const jobTimeout = 10 * time.Minute

// The jobs binary runs the recurring collections that the API only exposes
// on demand: plan auto-save sweeps, plan maturity marking and automated
// loan repayments. Each job is a full pass; per-item failures are logged
// and skipped so one bad row never stalls the schedule.
func main() {
	viper.SetConfigFile("configs/config.yaml")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}

	appLogger := logger.NewLogger(viper.GetString("server.mode"))

	db := database.NewPostgresDB(
		viper.GetString("database.dsn"),
		viper.GetInt("database.max_idle_conns"),
		viper.GetInt("database.max_open_conns"),
	)

	uow := ledgerrepo.NewUnitOfWork(db)
	accountRepo := ledgerrepo.NewAccountRepo(db)
	txRepo := ledgerrepo.NewTransactionRepo(db)
	ledgerService := ledgersvc.NewLedgerService(uow, accountRepo, txRepo, appLogger)

	loanService := loansvc.NewLoanService(
		uow,
		loanrepo.NewLoanRepo(db),
		loanrepo.NewRepaymentRepo(db),
		loanrepo.NewGuarantorRepo(db),
		ledgerService,
		appLogger,
	)

	savingsService := savingssvc.NewSavingsService(
		uow,
		savingsrepo.NewProductRepo(db),
		savingsrepo.NewPlanRepo(db),
		ledgerService,
		appLogger,
	)

	// Auto-saves pull from the member's primary savings account.
	fundingAccountFor := func(ctx context.Context, userID int64) (int64, error) {
		accounts, err := accountRepo.FindByUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		for _, a := range accounts {
			if a.Type == ledgerdomain.AccountSavings && a.Status == ledgerdomain.AccountActive {
				return a.ID, nil
			}
		}
		return 0, fmt.Errorf("user %d has no active savings account", userID)
	}

	c := cron.New()

	mustAdd(c, appLogger, "auto_save", viper.GetString("jobs.auto_save_schedule"), func(ctx context.Context) error {
		n, err := savingsService.CollectAutoSaves(ctx, time.Now().UTC(), fundingAccountFor)
		appLogger.Info("auto-save sweep finished", zap.Int("collected", n))
		return err
	})

	mustAdd(c, appLogger, "plan_maturity", viper.GetString("jobs.maturity_schedule"), func(ctx context.Context) error {
		n, err := savingsService.MarkMatured(ctx, time.Now().UTC())
		appLogger.Info("maturity sweep finished", zap.Int("matured", n))
		return err
	})

	mustAdd(c, appLogger, "loan_auto_repay", viper.GetString("jobs.auto_repay_schedule"), func(ctx context.Context) error {
		n, err := loanService.CollectAutoRepayments(ctx, time.Now().UTC())
		appLogger.Info("auto repayment sweep finished", zap.Int("collected", n))
		return err
	})

	c.Start()
	appLogger.Info("job scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down job scheduler")
	<-c.Stop().Done()
}

func mustAdd(c *cron.Cron, l *zap.Logger, name, schedule string, fn func(ctx context.Context) error) {
	if schedule == "" {
		l.Warn("job has no schedule, skipping", zap.String("job", name))
		return
	}
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			l.Error("job run failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		l.Fatal("invalid job schedule",
			zap.String("job", name),
			zap.String("schedule", schedule),
			zap.Error(err),
		)
	}
}
