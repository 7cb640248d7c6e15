package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/repository"
	"github.com/noah-isme/lesson-booking-api/internal/store"
	pkgcache "github.com/noah-isme/lesson-booking-api/pkg/cache"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	"github.com/noah-isme/lesson-booking-api/pkg/database"
)

type comparison struct {
	Dataset    string
	CachedRows int
	StoreRows  int
	Missing    []string
	Extra      []string
	Error      error
	Duration   time.Duration
}

func (c comparison) clean() bool {
	return c.Error == nil && len(c.Missing) == 0 && len(c.Extra) == 0 && c.CachedRows == c.StoreRows
}

func main() {
	var (
		timeout time.Duration
		only    string
		fix     bool
	)

	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	flag.StringVar(&only, "dataset", "", "verify a single dataset (lessons, reservations, roster, price_master)")
	flag.BoolVar(&fix, "fix", false, "rebuild all snapshots when drift is found")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	defer db.Close()

	redisClient, err := pkgcache.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	tableStore := store.NewPostgresStore(db)
	manager := cache.NewManager(repository.NewCacheRepository(redisClient, zap.NewNop()), tableStore, nil, zap.NewNop(), cfg.Cache)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	datasets := []string{store.TableLessons, store.TableReservations, store.TableRoster, store.TablePrices}
	if only != "" {
		datasets = []string{only}
	}

	var results []comparison
	drifted := 0
	for _, dataset := range datasets {
		comp := compareDataset(ctx, manager, tableStore, dataset)
		if !comp.clean() {
			drifted++
		}
		results = append(results, comp)
	}

	printReport(results)

	if drifted > 0 && fix {
		fmt.Println("Rebuilding all snapshots...")
		if err := manager.RebuildAll(ctx); err != nil {
			log.Fatalf("rebuild failed: %v", err)
		}
		fmt.Println("Rebuild complete.")
		return
	}
	if drifted > 0 {
		os.Exit(1)
	}
}

// compareDataset diffs the cached snapshot against the authoritative table.
// A cold cache repopulates on read and reports clean, which is the desired
// end state either way.
func compareDataset(ctx context.Context, manager *cache.Manager, tableStore store.TableStore, dataset string) comparison {
	comp := comparison{Dataset: dataset}
	start := time.Now()
	defer func() { comp.Duration = time.Since(start) }()

	cached, err := cachedKeys(ctx, manager, dataset)
	if err != nil {
		comp.Error = fmt.Errorf("read cache: %w", err)
		return comp
	}

	table, err := tableStore.ReadTable(ctx, dataset)
	if err != nil {
		comp.Error = fmt.Errorf("read store: %w", err)
		return comp
	}
	stored := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		stored[rowKey(dataset, table, row)] = true
	}

	comp.CachedRows = len(cached)
	comp.StoreRows = len(stored)
	for key := range stored {
		if !cached[key] {
			comp.Missing = append(comp.Missing, key)
		}
	}
	for key := range cached {
		if !stored[key] {
			comp.Extra = append(comp.Extra, key)
		}
	}
	sort.Strings(comp.Missing)
	sort.Strings(comp.Extra)
	return comp
}

func cachedKeys(ctx context.Context, manager *cache.Manager, dataset string) (map[string]bool, error) {
	keys := make(map[string]bool)
	switch dataset {
	case store.TableLessons:
		lessons, err := manager.Lessons(ctx)
		if err != nil {
			return nil, err
		}
		for _, l := range lessons {
			keys[l.ID] = true
		}
	case store.TableReservations:
		reservations, err := manager.Reservations(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range reservations {
			keys[r.ID] = true
		}
	case store.TableRoster:
		roster, err := manager.Roster(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range roster {
			keys[e.StudentID] = true
		}
	case store.TablePrices:
		prices, err := manager.Prices(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range prices {
			keys[p.Classroom+"/"+string(p.Mode)] = true
		}
	default:
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	return keys, nil
}

func rowKey(dataset string, table *store.Table, row []string) string {
	switch dataset {
	case store.TableRoster:
		return table.Cell(row, "student_id")
	case store.TablePrices:
		return table.Cell(row, "classroom") + "/" + strings.ToUpper(table.Cell(row, "mode"))
	default:
		return table.Cell(row, "id")
	}
}

func printReport(results []comparison) {
	fmt.Println("Cache Drift Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.clean() {
			status = "DRIFT"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Dataset, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Cached rows: %d | Store rows: %d\n", res.CachedRows, res.StoreRows)
		if len(res.Missing) > 0 {
			fmt.Printf("  Missing from cache: %v\n", res.Missing)
		}
		if len(res.Extra) > 0 {
			fmt.Printf("  Stale in cache: %v\n", res.Extra)
		}
	}
}
