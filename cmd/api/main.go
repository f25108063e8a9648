package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/billetkay/earnings-ledger/internal/adapter/handler"
	"github.com/billetkay/earnings-ledger/internal/adapter/repository/postgres"
	"github.com/billetkay/earnings-ledger/internal/core/services"
	"github.com/billetkay/earnings-ledger/internal/platform/config"
	"github.com/billetkay/earnings-ledger/internal/platform/database"
)

func loadEnv(filepath string) {
	file, err := os.Open(filepath)
	if err != nil {
		log.Println("No .env file found, using OS environment variables.")
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			os.Setenv(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Failed to read .env file: %v\n", err)
	}
}

func main() {
	loadEnv(".env")
	cfg := config.LoadConfig()

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	log.Printf("Connecting to Redis at %s:%s...", cfg.RedisHost, cfg.RedisPort)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	eventRepo := postgres.NewEventRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	earningsRepo := postgres.NewEarningsRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)

	feeCalc := services.NewFeeCalculator(services.FeeSchedule{
		PlatformPercent:     cfg.PlatformFeePercent,
		ProcessorPercent:    cfg.ProcessorFeePercent,
		ProcessorFixedCents: cfg.ProcessorFixedCents,
		SettlementHoldDays:  cfg.SettlementHoldDays,
	})

	earningsService := services.NewEarningsService(eventRepo, ticketRepo, earningsRepo, feeCalc, redisClient)
	balanceService := services.NewBalanceService(eventRepo, ticketRepo, payoutRepo, feeCalc, redisClient, cfg.BalanceCacheTTL)

	earningsHandler := handler.NewEarningsHandler(earningsService)
	organizerHandler := handler.NewOrganizerHandler(balanceService, earningsService)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go earningsService.RunSettlementSweep(sweepCtx, cfg.SettlementSweepInterval)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /earnings/{eventID}/tickets", earningsHandler.AddTicket)
	mux.HandleFunc("POST /earnings/{eventID}/refunds", earningsHandler.Refund)
	mux.HandleFunc("POST /earnings/{eventID}/withdrawals", earningsHandler.Withdraw)
	mux.HandleFunc("GET /earnings/{eventID}", earningsHandler.GetEarnings)
	mux.HandleFunc("GET /earnings/{eventID}/tiers", earningsHandler.GetTierBreakdown)

	mux.HandleFunc("GET /organizers/{organizerID}/balance", organizerHandler.GetBalance)
	mux.HandleFunc("GET /organizers/{organizerID}/payable-tickets", organizerHandler.GetPayableTickets)
	mux.HandleFunc("POST /organizers/{organizerID}/payouts", organizerHandler.PreparePayout)
	mux.HandleFunc("GET /organizers/{organizerID}/summary", organizerHandler.GetSummary)

	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
