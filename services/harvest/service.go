// Package harvest orchestrates the four-level extraction pipeline:
// provider search → agreements → plans → monthly entries, fanned out per
// provider and flattened into one denormalized relation.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"nfzharvest/lib/scrapers/umowy"
	"nfzharvest/lib/textutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/harvest")

var (
	// ErrNoProviders means the search itself matched nothing.
	ErrNoProviders = errors.New("no providers found for search")
	// ErrNoRecords means providers were found but every branch came up empty.
	ErrNoRecords = errors.New("no records collected")
)

// column tokens used to resolve schema-flexible headers, see textutil.FindHeader.
var (
	agreementCodeTokens = []string{"kod", "umowy"}
	productCodeTokens   = []string{"kod", "produktu"}
)

type Options struct {
	Query umowy.Query
	// Workers bounds the per-provider fan-out, default 10.
	Workers int
	// PageWorkers bounds the provider search pagination, default 5.
	PageWorkers int
}

type Result struct {
	Providers int
	Records   []umowy.Record
}

type Service struct {
	client *umowy.Client
}

func NewService(client *umowy.Client) Service {
	return Service{client: client}
}

// Run executes the whole pipeline and returns the normalized relation.
// individual provider branches fail independently: a failed branch is
// logged and contributes zero records, it never aborts its siblings.
func (s Service) Run(ctx context.Context, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	workers := opts.Workers
	if workers <= 0 {
		workers = 10
	}

	slog.InfoContext(ctx, "starting harvest",
		"year", opts.Query.Year,
		"branch", opts.Query.Branch,
		"service", opts.Query.Service,
		"workers", workers,
	)

	providers, err := s.client.SearchProviders(ctx, opts.Query, umowy.SearchOptions{
		Workers: opts.PageWorkers,
	})
	if err != nil {
		return Result{}, err
	}
	if len(providers) == 0 {
		return Result{}, ErrNoProviders
	}
	slog.InfoContext(ctx, "providers discovered", "count", len(providers))

	type branchResult struct {
		provider umowy.Provider
		records  []umowy.Record
		err      error
	}

	queue := make(chan umowy.Provider)
	results := make(chan branchResult)

	go func() {
		defer close(queue)
		for _, p := range providers {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for provider := range queue {
				records, err := s.expandProvider(ctx, provider, opts.Query)
				select {
				case results <- branchResult{provider: provider, records: records, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		for i := 0; i < workers; i++ {
			<-done
		}
		close(results)
	}()

	var records []umowy.Record
	for res := range results {
		if res.err != nil {
			slog.WarnContext(ctx, "provider branch failed",
				"provider", res.provider.Code,
				"err", res.err,
			)
			continue
		}
		records = append(records, res.records...)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := Result{
		Providers: len(providers),
		Records:   Normalize(records),
	}
	if len(result.Records) == 0 {
		return result, ErrNoRecords
	}
	slog.InfoContext(ctx, "harvest complete", "records", len(result.Records))
	return result, nil
}

// expandProvider walks one provider's branch: agreements → plans → months.
// an empty table anywhere simply ends that sub-branch; only the agreements
// fetch failing (or a panic) fails the branch as a whole.
func (s Service) expandProvider(ctx context.Context, provider umowy.Provider, q umowy.Query) (records []umowy.Record, err error) {
	ctx, span := tracer.Start(ctx, "expandProvider")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("provider expansion panicked: %v", r)
		}
	}()

	code := strings.TrimSpace(provider.Code)
	if code == "" {
		return nil, nil
	}

	body, err := s.client.FetchCached(ctx,
		s.client.AgreementsURL(q, code),
		s.client.ProviderDetailsReferer(q, code),
	)
	if err != nil {
		return nil, err
	}
	agreements := umowy.ExtractTable(s.client.Base, body)
	if agreements.Empty() {
		return nil, nil
	}
	agreementCodeHeader := textutil.FindHeader(agreements.Headers, agreementCodeTokens)

	for _, agreement := range agreements.Rows {
		if agreement.Link == nil {
			continue
		}
		agreementCode, _ := agreement.Get(agreementCodeHeader)

		body, err := s.client.FetchCached(ctx, agreement.Link.String(), s.client.AgreementDetailsReferer())
		if err != nil {
			slog.DebugContext(ctx, "skipping agreement, plans fetch failed",
				"provider", code, "url", agreement.Link, "err", err)
			continue
		}
		plans := umowy.ExtractTable(s.client.Base, body)
		if plans.Empty() {
			continue
		}
		productCodeHeader := textutil.FindHeader(plans.Headers, productCodeTokens)

		for _, plan := range plans.Rows {
			if plan.Link == nil {
				continue
			}
			productCode, _ := plan.Get(productCodeHeader)

			body, err := s.client.FetchCached(ctx, plan.Link.String(), s.client.PlanDetailsReferer(code))
			if err != nil {
				slog.DebugContext(ctx, "skipping plan, months fetch failed",
					"provider", code, "url", plan.Link, "err", err)
				continue
			}
			months := umowy.ExtractTable(s.client.Base, body)
			if months.Empty() {
				continue
			}

			for _, month := range months.Rows {
				record := umowy.Record{
					umowy.ColYear:          strconv.Itoa(q.Year),
					umowy.ColProviderCode:  code,
					umowy.ColProviderName:  provider.Name,
					umowy.ColCity:          provider.City,
					umowy.ColAgreementCode: agreementCode,
					umowy.ColProductCode:   productCode,
				}
				for k, v := range month.Fields() {
					record[k] = v
				}
				records = append(records, record)
			}
		}
	}

	return records, nil
}

// Normalize truncates code-like fields of the form "CODE trailing text"
// down to the leading token.
func Normalize(records []umowy.Record) []umowy.Record {
	for _, record := range records {
		if v, ok := record[umowy.ColAgreementCode]; ok {
			record[umowy.ColAgreementCode] = textutil.LeadingToken(v)
		}
		if v, ok := record[umowy.ColProductCode]; ok {
			record[umowy.ColProductCode] = textutil.LeadingToken(v)
		}
	}
	return records
}
