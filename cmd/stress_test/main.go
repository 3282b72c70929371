package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/inventory-service/internal/adapter/storage"
	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/core/service"
	"github.com/rl1809/inventory-service/internal/port"
)

const stressSequence = "stress-inventoryId"

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "redis address for the sequence counter")
	useMemory := flag.Bool("memory", false, "use an in-process counter instead of redis")
	totalRequests := flag.Int("requests", 200, "concurrent create calls")
	staleCounter := flag.Int("stale", 0, "items pre-inserted at ID001..IDn without advancing the counter")
	flag.Parse()

	ctx := context.Background()
	store := storage.NewMemoryAdapter()

	var seq port.SequenceRepository = store
	if !*useMemory {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()

		// Clear previous test data
		rdb.Del(ctx, "seq:"+stressSequence)
		seq = storage.NewRedisSequenceAdapter(rdb)
	}

	// Occupy the first ids so the creator has to retry past them
	for i := 1; i <= *staleCounter; i++ {
		item := domain.NewInventoryItem(domain.FormatItemID(int64(i)), domain.ItemFields{Name: "stale"}, time.Now().UTC())
		if err := store.Insert(ctx, item); err != nil {
			log.Fatalf("failed to seed item: %v", err)
		}
	}

	l, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	creator := service.NewCreator(service.NewSequenceAllocator(seq), service.DefaultRetryPolicy(), nil, l)
	items := service.NewItemService(store, creator, stressSequence)

	var (
		mu          sync.Mutex
		ids         = make(map[string]int)
		exhausted   atomic.Int32
		otherErrors atomic.Int32
	)

	var g errgroup.Group
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		g.Go(func() error {
			item, err := items.CreateItem(ctx, domain.ItemFields{
				Name:         fmt.Sprintf("stress-%d", i),
				CostPrice:    decimal.NewFromInt(1),
				SellingPrice: decimal.NewFromInt(2),
				Quantity:     1,
				Status:       domain.ItemStatusActive,
			})
			switch {
			case errors.Is(err, service.ErrIDAllocationExhausted):
				exhausted.Add(1)
			case err != nil:
				otherErrors.Add(1)
			default:
				mu.Lock()
				ids[item.ID]++
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	elapsed := time.Since(start)

	duplicates := 0
	sorted := make([]string, 0, len(ids))
	for id, n := range ids {
		if n > 1 {
			duplicates += n - 1
		}
		sorted = append(sorted, id)
	}
	// numeric order: ID1000 sorts after ID999
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) < len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Pre-seeded:       %d\n", *staleCounter)
	fmt.Printf("Created:          %d\n", len(ids))
	fmt.Printf("Exhausted:        %d\n", exhausted.Load())
	fmt.Printf("Other Errors:     %d\n", otherErrors.Load())
	fmt.Printf("Duplicate IDs:    %d\n", duplicates)
	if len(sorted) > 0 {
		fmt.Printf("ID Range:         %s .. %s\n", sorted[0], sorted[len(sorted)-1])
	}
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if duplicates == 0 {
		fmt.Println("PASS: every created item has a distinct id")
	} else {
		fmt.Printf("FAIL: %d duplicate ids handed out\n", duplicates)
	}
	if int(exhausted.Load())+int(otherErrors.Load())+len(ids) != *totalRequests {
		fmt.Println("FAIL: outcome count does not match request count")
	}
}
