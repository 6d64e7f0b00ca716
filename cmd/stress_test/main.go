package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/order-backoffice/internal/adapter/storage"
	"github.com/rl1809/order-backoffice/internal/config"
	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/core/service"
)

const totalRequests = 50

func main() {
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.OpenMySQL(ctx, storage.MySQLOptions{
		DSN:             cfg.MySQLDSN,
		MaxOpenConns:    cfg.MySQLMaxOpenConns,
		MaxIdleConns:    cfg.MySQLMaxIdleConns,
		ConnMaxLifetime: cfg.MySQLConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	rdb, err := storage.OpenRedis(ctx, storage.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	orders := storage.NewMySQLOrderStore(db)
	refStore := storage.NewMySQLReferenceStore(db)
	cache := storage.NewRedisAdapter(rdb)

	// Seed reference data unique to this run
	run := uuid.NewString()[:8]
	target := &domain.Status{Name: "Confirmed " + run}
	product := &domain.Product{Name: "Stress " + run, Price: decimal.NewFromInt(1500)}
	if err := refStore.CreateStatus(ctx, target); err != nil {
		log.Fatalf("failed to seed status: %v", err)
	}
	if err := refStore.CreateProduct(ctx, product); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	nop := zap.NewNop()
	orderService := service.NewOrderService(orders, refStore, cache, nop)
	statusService := service.NewStatusService(orders, refStore, nop)

	// Duplicate submissions of the same request
	requestID := "stress-" + run
	placed, duplicates, placeFailed := hammer(func(i int) error {
		_, err := orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
			RequestID:     requestID,
			ProductID:     product.ID,
			CustomerPhone: "0555" + run,
		})
		return err
	}, service.ErrDuplicateRequest)

	// Concurrent status changes against one version
	order, err := orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
		ProductID:     product.ID,
		CustomerPhone: "0666" + run,
	})
	if err != nil {
		log.Fatalf("failed to place order: %v", err)
	}
	expected := order.Version
	updated, stale, updateFailed := hammer(func(i int) error {
		_, err := statusService.UpdateStatus(ctx, service.StatusChange{
			OrderID:         order.ID,
			StatusID:        target.ID,
			ExpectedVersion: &expected,
		})
		return err
	}, service.ErrStaleVersion)

	final, err := orders.GetOrder(ctx, order.ID)
	if err != nil || final == nil {
		log.Fatalf("failed to reload order %d: %v", order.ID, err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Requests per phase: %d\n", totalRequests)
	fmt.Printf("Orders placed:      %d (duplicates %d, errors %d)\n", placed, duplicates, placeFailed)
	fmt.Printf("Status updated:     %d (stale %d, errors %d)\n", updated, stale, updateFailed)
	fmt.Printf("Final version:      %d\n", final.Version)
	fmt.Println("==========================================")

	check(placed == 1 && duplicates == totalRequests-1, "exactly one order placed per request id")
	check(updated == 1 && stale == totalRequests-1, "exactly one status change won the version race")
	check(final.Version == expected+1, "version advanced once")
}

// hammer runs call totalRequests times concurrently and counts successes,
// failures matching expected, and any other error.
func hammer(call func(i int) error, expected error) (ok, rejected, failed int32) {
	var okCount, rejectedCount, failedCount atomic.Int32
	var g errgroup.Group

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		g.Go(func() error {
			switch err := call(i); {
			case err == nil:
				okCount.Add(1)
			case errors.Is(err, expected):
				rejectedCount.Add(1)
			default:
				failedCount.Add(1)
				log.Printf("request %d: %v", i, err)
			}
			return nil
		})
	}
	g.Wait()
	log.Printf("%d requests in %v", totalRequests, time.Since(start))

	return okCount.Load(), rejectedCount.Load(), failedCount.Load()
}

func check(ok bool, what string) {
	if ok {
		fmt.Println("PASS:", what)
	} else {
		fmt.Println("FAIL:", what)
	}
}
