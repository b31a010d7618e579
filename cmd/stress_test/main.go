// Stress driver: fires a burst of concurrent single-line orders at one
// item and verifies that units sold never exceed the seeded stock.
package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	initialStock  = 100
	totalRequests = 500
)

func main() {
	ctx := context.Background()

	inventoryRepo := storage.NewMemoryAdapter()
	orderRepo := storage.NewMemoryOrderRepository()

	inventoryService := service.NewInventoryService(inventoryRepo, nil)
	orderService := service.NewOrderService(inventoryRepo, orderRepo, nil, nil)

	item, err := inventoryService.Create(ctx, service.CreateItemParams{
		Name:     "stress-item",
		Quantity: initialStock,
		Price:    decimal.RequireFromString("9.99"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed item")
	}
	log.Info().Str("item_id", item.ID).Int("stock", initialStock).Msg("seeded stock")

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			requestID := fmt.Sprintf("stress-%d", id)
			_, err := orderService.PlaceOrder(ctx, requestID, []service.OrderLineRequest{
				{ItemID: item.ID, Quantity: 1},
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				otherCount.Add(1)
				log.Error().Err(err).Msg("unexpected failure")
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	remaining, err := inventoryService.Get(ctx, item.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read back item")
	}
	orders, _ := orderRepo.ListOrders(ctx)

	log.Info().
		Int32("success", successCount.Load()).
		Int32("sold_out", soldOutCount.Load()).
		Int32("other", otherCount.Load()).
		Int("final_stock", remaining.Quantity).
		Int("orders", len(orders)).
		Dur("elapsed", elapsed).
		Msg("stress run complete")

	if int(successCount.Load()) != initialStock || remaining.Quantity != 0 {
		log.Fatal().Msg("FAILED: sold units do not match seeded stock")
	}
	log.Info().Msg("PASSED: exactly the seeded stock was sold")
}
