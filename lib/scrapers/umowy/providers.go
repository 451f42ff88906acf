package umowy

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/umowy")

// hard ceiling on the provider listing fan-out; the portal never comes
// close, a misbehaving server should not keep us fetching forever.
const maxSearchPages = 100

type SearchOptions struct {
	// Workers bounds the page fan-out, default 5.
	Workers int
}

// provider listing column names as the portal renders them.
var (
	colCode = "Kod"
	colName = "Nazwa świadczeniodawcy"
	colCity = "Miasto"
)

// SearchProviders walks the paginated provider listing for q. page 1 is
// fetched synchronously to learn whether the search has results at all;
// pages 2..100 are fetched by a bounded worker pool. the walk ends at the
// first empty (or failing) page: pages are fetched concurrently, so rows
// from pages numbered at or past the lowest empty page are discarded after
// the fan-in rather than cancelled in flight.
func (c *Client) SearchProviders(ctx context.Context, q Query, opts SearchOptions) ([]Provider, error) {
	ctx, span := tracer.Start(ctx, "SearchProviders")
	defer span.End()

	workers := opts.Workers
	if workers <= 0 {
		workers = 5
	}

	first := c.fetchSearchPage(ctx, q, 1)
	if first.Empty() {
		return nil, ctx.Err()
	}

	pageRows := map[int][]Row{1: first.Rows}

	// lowest page number observed to be empty; pages at or beyond it are
	// out of bounds. workers stop claiming pages past it best-effort.
	var boundary atomic.Int64
	boundary.Store(maxSearchPages + 1)

	type pageResult struct {
		page int
		rows []Row
	}

	pages := make(chan int)
	results := make(chan pageResult)

	go func() {
		defer close(pages)
		for page := 2; page <= maxSearchPages; page++ {
			if int64(page) >= boundary.Load() {
				return
			}
			select {
			case pages <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				if int64(page) >= boundary.Load() {
					continue
				}
				table := c.fetchSearchPage(ctx, q, page)
				if table.Empty() {
					lowerBoundary(&boundary, int64(page))
					continue
				}
				select {
				case results <- pageResult{page: page, rows: table.Rows}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		pageRows[res.page] = res.rows
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// keep only pages strictly below the first empty page, in page order
	limit := int(boundary.Load())
	pageNums := make([]int, 0, len(pageRows))
	for page := range pageRows {
		if page < limit {
			pageNums = append(pageNums, page)
		}
	}
	sort.Ints(pageNums)

	var providers []Provider
	for _, page := range pageNums {
		for _, row := range pageRows[page] {
			providers = append(providers, providerFromRow(row))
		}
	}
	return providers, nil
}

func (c *Client) fetchSearchPage(ctx context.Context, q Query, page int) Table {
	body, err := c.Fetch(ctx, searchResultsURL(c.Base, q, page), searchReferer(c.Base))
	if err != nil {
		// a page that keeps failing terminates the walk the same way an
		// empty one does
		slog.WarnContext(ctx, "provider search page failed", "page", page, "err", err)
		return Table{}
	}
	return ExtractTable(c.Base, body)
}

// projects the expected {code, name, city} columns by name, or the first
// three columns positionally when the listing's header set is unexpected.
func providerFromRow(row Row) Provider {
	if code, ok := row.Get(colCode); ok {
		name, _ := row.Get(colName)
		city, _ := row.Get(colCity)
		return Provider{Code: code, Name: name, City: city}
	}
	return Provider{Code: row.At(0), Name: row.At(1), City: row.At(2)}
}

func lowerBoundary(boundary *atomic.Int64, page int64) {
	for {
		current := boundary.Load()
		if page >= current || boundary.CompareAndSwap(current, page) {
			return
		}
	}
}
