package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/places"
)

// Store is the persistence surface the discovery engine needs.
type Store interface {
	ExistingKeys(ctx context.Context, dedupKeys []string) (map[string]bool, error)
	InsertLead(ctx context.Context, lead *model.Lead) error
	ReplaceDailyPicks(ctx context.Context, picks []model.DailyPick) error
}

// ComboFailure records one city/category combination that could not be
// searched. The rest of the run proceeds.
type ComboFailure struct {
	City     string
	Category string
	Err      error
}

// Report summarizes one discovery run.
type Report struct {
	Searched   int
	Found      int
	Inserted   int
	Duplicates int
	Picks      int
	Failures   []ComboFailure
}

// Engine runs sequential city/category searches against the provider and
// reconciles the results into the store.
type Engine struct {
	store   Store
	places  places.Client
	limiter *rate.Limiter
	cfg     config.DiscoveryConfig
	retry   resilience.Policy
}

// NewEngine creates a discovery engine. Page fetches are paced by
// cfg.PagePauseMs and retried on rate-limit and transient errors.
func NewEngine(st Store, client places.Client, cfg config.DiscoveryConfig) *Engine {
	pause := time.Duration(cfg.PagePauseMs) * time.Millisecond
	if pause <= 0 {
		pause = time.Second
	}
	policy := resilience.DefaultPolicy()
	policy.ShouldRetry = func(err error) bool {
		return resilience.IsRateLimit(err) || resilience.IsTransient(err)
	}
	return &Engine{
		store:   st,
		places:  client,
		limiter: rate.NewLimiter(rate.Every(pause), 1),
		cfg:     cfg,
		retry:   policy,
	}
}

// Run searches every configured city/category combination in order,
// reconciles the merged result set, and persists new leads plus a fresh
// daily-picks snapshot. A failing combination is reported and skipped,
// never fatal.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	log := zap.L().With(zap.String("component", "discover"))

	if len(e.cfg.Cities) == 0 || len(e.cfg.Categories) == 0 {
		return nil, eris.New("discover: at least one city and one category are required")
	}

	var (
		report Report
		merged []model.Lead
		seen   = SeenNames{}
	)

	for _, city := range e.cfg.Cities {
		for _, category := range e.cfg.Categories {
			if ctx.Err() != nil {
				return &report, eris.Wrap(ctx.Err(), "discover: canceled")
			}
			report.Searched++

			batch, err := e.searchCombo(ctx, category, city)
			if err != nil {
				log.Warn("combination search failed",
					zap.String("city", city),
					zap.String("category", category),
					zap.Error(err),
				)
				report.Failures = append(report.Failures, ComboFailure{City: city, Category: category, Err: err})
				continue
			}
			report.Found += len(batch)

			batch = Dedupe(batch)
			batch = FilterSeen(batch, seen)
			merged = append(merged, batch...)
		}
	}

	Rank(merged)

	existing, err := e.store.ExistingKeys(ctx, Keys(merged))
	if err != nil {
		return &report, eris.Wrap(err, "discover: cross-reference store")
	}
	MarkSaved(merged, existing)

	for i := range merged {
		if merged[i].AlreadySaved {
			report.Duplicates++
			continue
		}
		if err := e.store.InsertLead(ctx, &merged[i]); err != nil {
			if errors.Is(err, store.ErrDuplicateLead) {
				merged[i].AlreadySaved = true
				report.Duplicates++
				continue
			}
			return &report, eris.Wrapf(err, "discover: persist lead %q", merged[i].BusinessName)
		}
		report.Inserted++
	}

	picks := e.pickDaily(merged)
	if err := e.store.ReplaceDailyPicks(ctx, picks); err != nil {
		return &report, eris.Wrap(err, "discover: replace daily picks")
	}
	report.Picks = len(picks)

	log.Info("discovery run complete",
		zap.Int("searched", report.Searched),
		zap.Int("found", report.Found),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", len(report.Failures)),
	)
	return &report, nil
}

// searchCombo paginates one city/category search, up to cfg.MaxPages
// pages with the limiter spacing the requests.
func (e *Engine) searchCombo(ctx context.Context, category, city string) ([]model.Lead, error) {
	maxPages := e.cfg.MaxPages
	if maxPages <= 0 || maxPages > 3 {
		maxPages = 3
	}
	query := fmt.Sprintf("%s in %s", category, city)
	hint := cityHint(city)

	var (
		leads     []model.Lead
		pageToken string
	)
	for page := 0; page < maxPages; page++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "discover: pacing wait")
		}

		resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*places.SearchPage, error) {
			return e.places.SearchBusinesses(ctx, query, pageToken)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "discover: search %q page %d", query, page+1)
		}

		for _, b := range resp.Businesses {
			leads = append(leads, buildLead(b, category, hint))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return leads, nil
}

// buildLead normalizes, classifies, and scores one raw search result.
func buildLead(b places.Business, category, cityHint string) model.Lead {
	loc := normalize.ParseCityState(b.Address, cityHint)
	lead := model.Lead{
		BusinessName:   b.Name,
		Category:       category,
		Address:        b.Address,
		City:           loc.City,
		State:          loc.State,
		Phone:          b.Phone,
		GoogleRating:   b.Rating,
		ReviewCount:    b.ReviewCount,
		HasWebsite:     b.WebsiteURL != "",
		WebsiteURL:     b.WebsiteURL,
		WebsiteQuality: scorer.ClassifyWebsite(b.WebsiteURL),
		MapsURL:        b.MapsURL,
		Status:         model.StatusNew,
	}
	lead.LeadScore = scorer.Score(&lead)
	return lead
}

// pickDaily takes the top-ranked new leads for the daily snapshot.
func (e *Engine) pickDaily(ranked []model.Lead) []model.DailyPick {
	limit := e.cfg.DailyPicks
	if limit <= 0 {
		limit = 10
	}

	var picks []model.DailyPick
	for _, lead := range ranked {
		if lead.AlreadySaved {
			continue
		}
		picks = append(picks, model.DailyPick{
			BusinessName: lead.BusinessName,
			Category:     lead.Category,
			City:         lead.City,
			State:        lead.State,
			Phone:        lead.Phone,
			WebsiteURL:   lead.WebsiteURL,
			LeadScore:    lead.LeadScore,
			Rank:         len(picks) + 1,
		})
		if len(picks) == limit {
			break
		}
	}
	return picks
}

// cityHint extracts the bare city from a configured "City, ST" entry.
func cityHint(city string) string {
	if i := strings.Index(city, ","); i >= 0 {
		return strings.TrimSpace(city[:i])
	}
	return strings.TrimSpace(city)
}
