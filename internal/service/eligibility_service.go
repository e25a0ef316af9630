package service

import (
	"context"
	"strings"
	"time"

	"github.com/loadbid-next/internal/cache"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

const defaultEligibilityCacheTTL = 30 * time.Second

// EligibilityDecision 资格判定结果
type EligibilityDecision struct {
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
	MatchedBy string `json:"matched_by,omitempty"` // operating_number / dot_number
	EntryID   uint   `json:"entry_id,omitempty"`
}

// EligibilityChangeInput 名单变更参数
type EligibilityChangeInput struct {
	OperatingNumber string
	DotNumber       string
	Reason          string
	Actor           string
}

// EligibilityService 投标资格校验，名单缺省视为可投标
type EligibilityService struct {
	repo     repository.EligibilityRepository
	cache    cache.Store
	cacheTTL time.Duration
	nowFn    func() time.Time
}

// NewEligibilityService 创建资格服务，cacheStore 可为 nil
func NewEligibilityService(repo repository.EligibilityRepository, cacheStore cache.Store, ttl time.Duration) *EligibilityService {
	if ttl <= 0 {
		ttl = defaultEligibilityCacheTTL
	}
	return &EligibilityService{repo: repo, cache: cacheStore, cacheTTL: ttl, nowFn: time.Now}
}

func eligibilityCacheKey(kind, value string) string {
	return "eligibility:" + kind + ":" + strings.ToUpper(strings.TrimSpace(value))
}

// IsEligible 按 MC 号与 DOT 号分别判定，任一命中禁用记录即不可投标
func (s *EligibilityService) IsEligible(ctx context.Context, operatingNumber, dotNumber string) (EligibilityDecision, error) {
	checks := []struct {
		kind  string
		value string
	}{
		{kind: "operating_number", value: normalizeIdentifier(operatingNumber)},
		{kind: "dot_number", value: normalizeIdentifier(dotNumber)},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		decision, err := s.decide(ctx, c.kind, c.value)
		if err != nil {
			return EligibilityDecision{}, err
		}
		if !decision.Eligible {
			return decision, nil
		}
	}
	return EligibilityDecision{Eligible: true}, nil
}

func (s *EligibilityService) decide(ctx context.Context, kind, value string) (EligibilityDecision, error) {
	key := eligibilityCacheKey(kind, value)
	if s.cache != nil {
		var cached EligibilityDecision
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.FromContext(ctx).Debugw("eligibility_cache_get_failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	var entries []models.EligibilityEntry
	var err error
	if kind == "operating_number" {
		entries, err = s.repo.FindByIdentifiers(value, "")
	} else {
		entries, err = s.repo.FindByIdentifiers("", value)
	}
	if err != nil {
		return EligibilityDecision{}, dependencyError("eligibility lookup", err)
	}

	decision := EligibilityDecision{Eligible: true}
	for _, entry := range entries {
		if !entry.IsActive {
			decision = EligibilityDecision{
				Eligible:  false,
				Reason:    entry.Reason,
				MatchedBy: kind,
				EntryID:   entry.ID,
			}
			break
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, decision, s.cacheTTL); err != nil {
			logger.FromContext(ctx).Debugw("eligibility_cache_set_failed", "key", key, "error", err)
		}
	}
	return decision, nil
}

// Disable 禁止承运人投标，已有记录则更新
func (s *EligibilityService) Disable(ctx context.Context, input EligibilityChangeInput) (*models.EligibilityEntry, error) {
	entry, err := s.findOrNew(input)
	if err != nil {
		return nil, err
	}
	now := s.nowFn().UTC()
	entry.IsActive = false
	entry.Reason = strings.TrimSpace(input.Reason)
	entry.DisabledAt = &now
	entry.UpdatedBy = strings.TrimSpace(input.Actor)
	if err := s.save(entry); err != nil {
		return nil, err
	}
	s.invalidate(ctx, entry)
	logger.FromContext(ctx).Infow("eligibility_disabled",
		"operating_number", entry.OperatingNumber,
		"dot_number", entry.DotNumber,
		"reason", entry.Reason,
		"actor", entry.UpdatedBy,
	)
	return entry, nil
}

// Enable 恢复承运人投标资格
func (s *EligibilityService) Enable(ctx context.Context, input EligibilityChangeInput) (*models.EligibilityEntry, error) {
	entry, err := s.findOrNew(input)
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, ErrEligibilityNotFound
	}
	now := s.nowFn().UTC()
	entry.IsActive = true
	entry.EnabledAt = &now
	entry.UpdatedBy = strings.TrimSpace(input.Actor)
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		entry.Reason = reason
	}
	if err := s.save(entry); err != nil {
		return nil, err
	}
	s.invalidate(ctx, entry)
	logger.FromContext(ctx).Infow("eligibility_enabled",
		"operating_number", entry.OperatingNumber,
		"dot_number", entry.DotNumber,
		"actor", entry.UpdatedBy,
	)
	return entry, nil
}

// List 分页查询名单
func (s *EligibilityService) List(filter repository.EligibilityListFilter) ([]models.EligibilityEntry, int64, error) {
	entries, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, dependencyError("list eligibility entries", err)
	}
	return entries, total, nil
}

func (s *EligibilityService) findOrNew(input EligibilityChangeInput) (*models.EligibilityEntry, error) {
	op := normalizeIdentifier(input.OperatingNumber)
	dot := normalizeIdentifier(input.DotNumber)
	if op == "" && dot == "" {
		return nil, ErrInvalidIdentifier
	}
	entries, err := s.repo.FindByIdentifiers(op, dot)
	if err != nil {
		return nil, dependencyError("eligibility lookup", err)
	}
	for i := range entries {
		if (op == "" || entries[i].OperatingNumber == op) && (dot == "" || entries[i].DotNumber == dot) {
			return &entries[i], nil
		}
	}
	if len(entries) > 0 {
		entry := entries[0]
		if entry.OperatingNumber == "" {
			entry.OperatingNumber = op
		}
		if entry.DotNumber == "" {
			entry.DotNumber = dot
		}
		return &entry, nil
	}
	return &models.EligibilityEntry{OperatingNumber: op, DotNumber: dot, IsActive: true}, nil
}

func (s *EligibilityService) save(entry *models.EligibilityEntry) error {
	var err error
	if entry.ID == 0 {
		err = s.repo.Create(entry)
	} else {
		err = s.repo.Update(entry)
	}
	return dependencyError("save eligibility entry", err)
}

func (s *EligibilityService) invalidate(ctx context.Context, entry *models.EligibilityEntry) {
	if s.cache == nil || entry == nil {
		return
	}
	keys := make([]string, 0, 2)
	if entry.OperatingNumber != "" {
		keys = append(keys, eligibilityCacheKey("operating_number", entry.OperatingNumber))
	}
	if entry.DotNumber != "" {
		keys = append(keys, eligibilityCacheKey("dot_number", entry.DotNumber))
	}
	for _, key := range keys {
		if err := s.cache.Del(ctx, key); err != nil {
			logger.FromContext(ctx).Warnw("eligibility_cache_invalidate_failed", "key", key, "error", err)
		}
	}
}

// normalizeIdentifier MC/DOT 号统一大写去空格
func normalizeIdentifier(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
