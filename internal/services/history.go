package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"profit-engine/internal/models"
	"profit-engine/internal/pricing"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
)

const (
	colSubCategory = "Sub-Category"
	colRegion      = "Region"
	colCategory    = "Category"
	colShipType    = "Ship_Type"
	colSales       = "Sales"
	colQuantity    = "Quantity"
	colProfit      = "Profit"
)

var requiredColumns = []string{colSubCategory, colRegion, colCategory, colShipType, colSales, colQuantity, colProfit}

var (
	errMissingValue = errors.New("missing value")
	errNonFinite    = errors.New("non-finite value")
	errBadQuantity  = errors.New("quantity must be a positive integer")
)

// Snapshot is the cleaned transaction table as it is cached on disk.
type Snapshot struct {
	Records      []models.Transaction
	Discarded    int64
	LastModified time.Time
}

// History owns the historical transaction table. It is written once at
// start-up and read by every simulation afterwards.
type History struct {
	mu               sync.RWMutex
	snapshot         *Snapshot
	options          models.Options
	rules            pricing.Rules
	cacheDir         string
	recordsProcessed atomic.Int64
	logger           *slog.Logger
}

// NewHistory returns an empty store. An empty cacheDir disables the on-disk
// snapshot cache.
func NewHistory(cacheDir string) *History {
	return &History{
		snapshot: &Snapshot{},
		options:  buildOptions(nil),
		rules:    pricing.DefaultRules(),
		cacheDir: cacheDir,
		logger:   slog.Default(),
	}
}

func (h *History) SetLogger(logger *slog.Logger) {
	h.logger = logger
}

func (h *History) SetData(data []models.Transaction) {
	h.install(&Snapshot{
		Records:      slices.Clone(data),
		LastModified: time.Now(),
	})
}

func (h *History) install(snapshot *Snapshot) {
	options := buildOptions(snapshot.Records)

	h.mu.Lock()
	h.snapshot = snapshot
	h.options = options
	h.mu.Unlock()

	h.recordsProcessed.Store(int64(len(snapshot.Records)))
	h.warnCategoryConflicts(snapshot.Records)
}

func (h *History) LoadFromCSV(ctx context.Context, filename string) error {
	if cached, err := h.loadFromCache(filename); err == nil {
		fileInfo, err := os.Stat(filename)
		if err == nil && fileInfo.ModTime().Before(cached.LastModified) {
			h.install(cached)
			h.logger.Info("loaded from cache", "records", len(cached.Records))
			return nil
		}
	}

	start := time.Now()
	h.logger.Info("processing CSV file", "filename", filename)

	snapshot, err := h.streamProcessCSV(ctx, filename)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	h.install(snapshot)

	if err := h.saveToCache(filename, snapshot); err != nil {
		h.logger.Warn("failed to save cache", "error", err)
	}

	duration := time.Since(start)
	count := h.recordsProcessed.Load()
	h.logger.Info("csv processing complete",
		"records", count,
		"discarded", snapshot.Discarded,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	return nil
}

type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return idx, nil
}

func (h *History) streamProcessCSV(ctx context.Context, filename string) (*Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{}
	batch := make([][]string, 0, batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				snapshot.Discarded++
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}

		batch = append(batch, record)

		if len(batch) >= batchSize {
			if err := processBatch(ctx, batch, cols, snapshot); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := processBatch(ctx, batch, cols, snapshot); err != nil {
			return nil, err
		}
	}

	if len(snapshot.Records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	snapshot.LastModified = time.Now()
	return snapshot, nil
}

// processBatch parses rows concurrently and appends the valid ones to the
// snapshot in file order, since the first matching row fixes a sub-category's
// category.
func processBatch(ctx context.Context, batch [][]string, cols columnIndex, snapshot *Snapshot) error {
	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	parsed := make([]models.Transaction, len(batch))
	valid := make([]bool, len(batch))

	for i, record := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, err := parseTransaction(record, cols)
			if err != nil {
				return nil // invalid rows are dropped
			}
			parsed[i] = tx
			valid[i] = true
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return err
	}

	for i, ok := range valid {
		if ok {
			snapshot.Records = append(snapshot.Records, parsed[i])
		} else {
			snapshot.Discarded++
		}
	}

	return nil
}

func parseTransaction(record []string, cols columnIndex) (models.Transaction, error) {
	field := func(col string) (string, error) {
		i := cols[col]
		if i >= len(record) {
			return "", errMissingValue
		}
		v := strings.TrimSpace(record[i])
		if v == "" || strings.EqualFold(v, "nan") {
			return "", errMissingValue
		}
		return v, nil
	}

	var text [4]string
	for i, col := range []string{colSubCategory, colRegion, colCategory, colShipType} {
		v, err := field(col)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("%s: %w", col, err)
		}
		text[i] = v
	}

	var nums [3]float64
	for i, col := range []string{colSales, colQuantity, colProfit} {
		v, err := field(col)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("%s: %w", col, err)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("%s: %w", col, err)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return models.Transaction{}, fmt.Errorf("%s: %w", col, errNonFinite)
		}
		nums[i] = n
	}

	quantity := nums[1]
	if quantity <= 0 || quantity != math.Trunc(quantity) {
		return models.Transaction{}, errBadQuantity
	}

	return models.Transaction{
		SubCategory: text[0],
		Region:      text[1],
		Category:    text[2],
		ShipType:    text[3],
		Sales:       nums[0],
		Quantity:    int(quantity),
		Profit:      nums[2],
	}, nil
}

func buildOptions(records []models.Transaction) models.Options {
	subCategories := make(map[string]struct{})
	regions := make(map[string]struct{})
	shipTypes := make(map[string]struct{})

	for _, tx := range records {
		subCategories[tx.SubCategory] = struct{}{}
		regions[tx.Region] = struct{}{}
		shipTypes[tx.ShipType] = struct{}{}
	}

	return models.Options{
		SubCategories: sortedSet(subCategories),
		Regions:       sortedSet(regions),
		ShipTypes:     sortedSet(shipTypes),
	}
}

func sortedSet(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	slices.Sort(result)
	return result
}

// CategoryConflicts reports sub-categories whose rows disagree on category.
func CategoryConflicts(records []models.Transaction) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for _, tx := range records {
		if seen[tx.SubCategory] == nil {
			seen[tx.SubCategory] = make(map[string]struct{})
		}
		seen[tx.SubCategory][tx.Category] = struct{}{}
	}

	conflicts := make(map[string][]string)
	for sub, categories := range seen {
		if len(categories) > 1 {
			conflicts[sub] = sortedSet(categories)
		}
	}
	return conflicts
}

func (h *History) warnCategoryConflicts(records []models.Transaction) {
	for sub, categories := range CategoryConflicts(records) {
		h.logger.Warn("sub-category maps to several categories, first matching row wins",
			"sub_category", sub,
			"categories", categories,
		)
	}
}

// Cache management
func (h *History) getCacheFilename(csvPath string) string {
	name := strings.ReplaceAll(filepath.Clean(csvPath), string(filepath.Separator), "_")
	return filepath.Join(h.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (h *History) saveToCache(csvPath string, snapshot *Snapshot) error {
	if h.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(h.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(h.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot)
}

func (h *History) loadFromCache(csvPath string) (*Snapshot, error) {
	if h.cacheDir == "" {
		return nil, os.ErrNotExist
	}

	file, err := os.Open(h.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot Snapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return nil, err
	}
	if len(snapshot.Records) == 0 {
		return nil, fmt.Errorf("empty cache")
	}

	return &snapshot, nil
}

// Len reports the number of transactions held in memory.
func (h *History) Len() int {
	return int(h.recordsProcessed.Load())
}

func (h *History) Options() models.Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.options
}

// Summary aggregates the rows for one sub-category and region.
func (h *History) Summary(subCategory, region string) (models.HistoricalSummary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return pricing.Aggregate(h.snapshot.Records, subCategory, region)
}

// Simulate evaluates order against the loaded table. It returns
// pricing.ErrNoHistoricalData when no row matches the order.
func (h *History) Simulate(order models.OrderSimulation) (models.Evaluation, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rules.Evaluate(order, h.snapshot.Records)
}

func (h *History) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]any{
		"record_count":   len(h.snapshot.Records),
		"discarded":      h.snapshot.Discarded,
		"last_processed": h.snapshot.LastModified,
		"sub_categories": len(h.options.SubCategories),
		"regions":        len(h.options.Regions),
		"ship_types":     len(h.options.ShipTypes),
	}
}
