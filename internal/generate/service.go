package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/wellspring/internal/dedup"
	"github.com/ppiankov/wellspring/internal/logging"
	"github.com/ppiankov/wellspring/internal/model"
)

// Sink is the persistence boundary of a run
type Sink interface {
	FetchBaseline(ctx context.Context) ([]model.BaselineItem, error)
	InsertAccepted(ctx context.Context, items []model.AcceptedItem) error
}

// Authorizer gates who may trigger generation
type Authorizer interface {
	Authorize(role string) error
}

// RoleAuthorizer allows a fixed set of roles
type RoleAuthorizer struct {
	allowed map[string]bool
}

// NewRoleAuthorizer creates an authorizer for roles (case-insensitive)
func NewRoleAuthorizer(roles []string) *RoleAuthorizer {
	a := &RoleAuthorizer{allowed: make(map[string]bool, len(roles))}
	for _, r := range roles {
		a.allowed[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return a
}

// Authorize returns model.ErrAuth unless role is allowed
func (a *RoleAuthorizer) Authorize(role string) error {
	if !a.allowed[strings.ToLower(strings.TrimSpace(role))] {
		return fmt.Errorf("%w: role %q may not generate content", model.ErrAuth, role)
	}
	return nil
}

// Request is one generation invocation
type Request struct {
	Category    string           `json:"category"` // a category name or "all"
	Count       int              `json:"count"`
	Theme       model.Theme      `json:"theme,omitempty"`
	Translation string           `json:"translation,omitempty"`
	Categories  []model.Category `json:"categories,omitempty"` // subset for "all"; empty means every category
	Role        string           `json:"role"`
	DryRun      bool             `json:"dry_run,omitempty"`
}

// Result summarizes a run. Fewer items than requested is still a success.
type Result struct {
	AcceptedCount           int                    `json:"accepted_count"`
	Requested               int                    `json:"requested"`
	Category                string                 `json:"category"`
	PerCategoryDistribution map[model.Category]int `json:"per_category_distribution,omitempty"`
	Theme                   model.Theme            `json:"theme,omitempty"`
	Items                   []model.AcceptedItem   `json:"items"`
	Outcome                 Outcome                `json:"outcome"`
	Attempts                int                    `json:"attempts,omitempty"`
	Saturated               bool                   `json:"saturated,omitempty"`
	DryRun                  bool                   `json:"dry_run,omitempty"`
	Duration                time.Duration          `json:"duration_ns"`
}

// Service validates, generates and persists one request at a time
type Service struct {
	engine *Engine
	sink   Sink
	auth   Authorizer
	cfg    model.GenerationConfig
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithAuthorizer replaces the default admin/editor role gate
func WithAuthorizer(a Authorizer) ServiceOption {
	return func(s *Service) { s.auth = a }
}

// WithServiceLogger sets the service logger
func WithServiceLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wires an engine to a sink
func NewService(engine *Engine, sink Sink, cfg model.GenerationConfig, opts ...ServiceOption) *Service {
	s := &Service{
		engine: engine,
		sink:   sink,
		auth:   NewRoleAuthorizer(model.DefaultConfig().Auth.AllowedRoles),
		cfg:    cfg,
		logger: logging.Nop(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxCount <= 0 {
		s.cfg.MaxCount = model.DefaultConfig().Generation.MaxCount
	}
	return s
}

// Validate checks a request without running it
func (s *Service) Validate(req Request) error {
	if req.Category != model.CategoryAll && !model.Category(req.Category).Valid() {
		return fmt.Errorf("%w: unknown category %q", model.ErrInvalidRequest, req.Category)
	}
	if req.Count < 1 || req.Count > s.cfg.MaxCount {
		return fmt.Errorf("%w: count must be between 1 and %d, got %d", model.ErrInvalidRequest, s.cfg.MaxCount, req.Count)
	}
	if !req.Theme.Valid() {
		return fmt.Errorf("%w: unknown theme %q", model.ErrInvalidRequest, req.Theme)
	}
	for _, c := range req.Categories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q in subset", model.ErrInvalidRequest, c)
		}
	}
	return nil
}

// Run executes a request: authorize, validate, fetch the baseline once,
// generate, then insert the accepted items as one batch unless DryRun.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()

	if err := s.auth.Authorize(req.Role); err != nil {
		return nil, err
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if req.Translation == "" {
		req.Translation = s.cfg.DefaultTranslation
	}

	log := s.logger.With("category", req.Category, "count", req.Count, "theme", req.Theme)

	rows, err := s.sink.FetchBaseline(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch baseline: %v", model.ErrPersistence, err)
	}
	baseline := dedup.NewBaseline(rows)
	log.Info("baseline loaded", "items", baseline.Len())

	res := &Result{
		Requested: req.Count,
		Category:  req.Category,
		Theme:     req.Theme,
		DryRun:    req.DryRun,
	}

	// the ceiling bounds generation only; accepted items are still persisted
	genCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var candidates []model.Candidate
	if req.Category == model.CategoryAll {
		categories := req.Categories
		if len(categories) == 0 {
			categories = model.Categories()
		}
		many := s.engine.GenerateMany(genCtx, baseline, ManyRequest{
			Total:       req.Count,
			Categories:  categories,
			Theme:       req.Theme,
			Translation: req.Translation,
		})
		candidates = many.Items
		res.PerCategoryDistribution = many.Distribution
		res.Outcome = OutcomeExhausted
		if len(candidates) >= req.Count {
			res.Outcome = OutcomeQuotaMet
		}
	} else {
		q := s.engine.FillQuota(genCtx, dedup.NewRunContext(baseline), QuotaRequest{
			Category:    model.Category(req.Category),
			Count:       req.Count,
			Theme:       req.Theme,
			Translation: req.Translation,
		})
		candidates = q.Items
		res.Outcome = q.Outcome
		res.Attempts = q.Attempts
		res.Saturated = q.Saturated
	}

	res.Items = s.accept(candidates, req.Theme)
	res.AcceptedCount = len(res.Items)

	if genCtx.Err() != nil {
		log.Warn("generation stopped early", "error", genCtx.Err())
	}

	if !req.DryRun && len(res.Items) > 0 {
		if err := s.sink.InsertAccepted(ctx, res.Items); err != nil {
			return nil, fmt.Errorf("%w: insert %d items: %v", model.ErrPersistence, len(res.Items), err)
		}
	}

	res.Duration = s.now().Sub(start)
	log.Info("generation finished",
		"accepted", res.AcceptedCount,
		"outcome", res.Outcome,
		"saturated", res.Saturated,
		"dry_run", req.DryRun,
	)
	return res, nil
}

func (s *Service) accept(candidates []model.Candidate, theme model.Theme) []model.AcceptedItem {
	created := s.now().UTC()
	items := make([]model.AcceptedItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, model.AcceptedItem{
			ID:        s.newID(),
			Content:   c.Content,
			Category:  c.Category,
			Author:    c.Author,
			Citation:  c.Citation,
			Theme:     theme,
			CreatedAt: created,
		})
	}
	return items
}
