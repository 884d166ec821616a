package main

import (
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	ledgerrepo "github.com/kwachasoft/coopfin/internal/ledger/adapter/repo"
	ledgerapi "github.com/kwachasoft/coopfin/internal/ledger/api"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	loanrepo "github.com/kwachasoft/coopfin/internal/loan/adapter/repo"
	loanapi "github.com/kwachasoft/coopfin/internal/loan/api"
	loansvc "github.com/kwachasoft/coopfin/internal/loan/service"
	memberrepo "github.com/kwachasoft/coopfin/internal/member/adapter/repo"
	memberapi "github.com/kwachasoft/coopfin/internal/member/api"
	membersvc "github.com/kwachasoft/coopfin/internal/member/service"
	"github.com/kwachasoft/coopfin/internal/platform/cache"
	"github.com/kwachasoft/coopfin/internal/platform/database"
	"github.com/kwachasoft/coopfin/internal/platform/logger"
	"github.com/kwachasoft/coopfin/internal/platform/server"
	reportingrepo "github.com/kwachasoft/coopfin/internal/reporting/adapter/repo"
	reportingapi "github.com/kwachasoft/coopfin/internal/reporting/api"
	reportingsvc "github.com/kwachasoft/coopfin/internal/reporting/service"
	savingsrepo "github.com/kwachasoft/coopfin/internal/savings/adapter/repo"
	savingsapi "github.com/kwachasoft/coopfin/internal/savings/api"
	savingssvc "github.com/kwachasoft/coopfin/internal/savings/service"
	withdrawalrepo "github.com/kwachasoft/coopfin/internal/withdrawal/adapter/repo"
	withdrawalapi "github.com/kwachasoft/coopfin/internal/withdrawal/api"
	withdrawalsvc "github.com/kwachasoft/coopfin/internal/withdrawal/service"
)

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

	redisClient := cache.NewRedisClient(
		viper.GetString("redis.addr"),
		viper.GetString("redis.password"),
		viper.GetInt("redis.db"),
	)
	reportCache := cache.New(redisClient, appLogger)

	// -- Ledger --
	uow := ledgerrepo.NewUnitOfWork(db)
	accountRepo := ledgerrepo.NewAccountRepo(db)
	txRepo := ledgerrepo.NewTransactionRepo(db)
	postingLogRepo := ledgerrepo.NewPostingLogRepo(db)
	ledgerService := ledgersvc.NewLedgerService(uow, accountRepo, txRepo, appLogger)
	accrualService := ledgersvc.NewAccrualService(ledgerService, accountRepo, postingLogRepo, appLogger)
	ledgerHandler := ledgerapi.NewLedgerHandler(ledgerService, accrualService)

	// -- Loans --
	loanRepo := loanrepo.NewLoanRepo(db)
	repaymentRepo := loanrepo.NewRepaymentRepo(db)
	guarantorRepo := loanrepo.NewGuarantorRepo(db)
	loanService := loansvc.NewLoanService(uow, loanRepo, repaymentRepo, guarantorRepo, ledgerService, appLogger)
	loanHandler := loanapi.NewLoanHandler(loanService)

	// -- Members --
	memberRepo := memberrepo.NewMemberRepo(db)
	memberService := membersvc.NewMemberService(uow, memberRepo, ledgerService, appLogger)
	memberHandler := memberapi.NewMemberHandler(memberService)

	// -- Savings --
	productRepo := savingsrepo.NewProductRepo(db)
	planRepo := savingsrepo.NewPlanRepo(db)
	savingsService := savingssvc.NewSavingsService(uow, productRepo, planRepo, ledgerService, appLogger)
	savingsHandler := savingsapi.NewSavingsHandler(savingsService)

	// -- Withdrawals --
	requestRepo := withdrawalrepo.NewRequestRepo(db)
	withdrawalService := withdrawalsvc.NewWithdrawalService(uow, requestRepo, accountRepo, ledgerService, appLogger)
	withdrawalHandler := withdrawalapi.NewWithdrawalHandler(withdrawalService)

	// -- Reporting --
	reportingReader := reportingrepo.NewReader(db)
	reportingService := reportingsvc.NewReportingService(reportingReader, txRepo, reportCache, appLogger)
	reportingHandler := reportingapi.NewReportingHandler(reportingService)

	srv := server.NewServer(
		appLogger,
		viper.GetString("server.port"),
		viper.GetString("server.mode"),
		server.Handlers{
			Ledger:     ledgerHandler,
			Loan:       loanHandler,
			Member:     memberHandler,
			Savings:    savingsHandler,
			Withdrawal: withdrawalHandler,
			Reporting:  reportingHandler,
		},
	)

	if err := srv.Run(); err != nil {
		appLogger.Fatal("Server startup failed", zap.Error(err))
	}
}
