package services

import (
	"context"
	"errors"
	"time"

	"dz-fellah/events"
	"dz-fellah/models"
	"dz-fellah/repositories"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var DefaultPerishableCategories = []string{"Vegetables", "Fruits", "Dairy"}

const sweepLockKey = "antigaspi:lock"

type AntiGaspiConfig struct {
	Categories []string
	MinAgeDays int
	MinStock   decimal.Decimal
	LockTTL    time.Duration
}

// AntiGaspiService discounts aging perishable stock. When a redis client is
// set, a lock keeps two scheduled runs from overlapping.
type AntiGaspiService struct {
	store    repositories.Store
	redis    *redis.Client
	notifier *Notifier
	logger   *zap.Logger
	cfg      AntiGaspiConfig
	now      func() time.Time
}

func NewAntiGaspiService(store repositories.Store, rdb *redis.Client, notifier *Notifier, logger *zap.Logger, cfg AntiGaspiConfig) *AntiGaspiService {
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultPerishableCategories
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &AntiGaspiService{store: store, redis: rdb, notifier: notifier, logger: logger, cfg: cfg, now: time.Now}
}

func (s *AntiGaspiService) SetClock(now func() time.Time) { s.now = now }

// Rule builds the selection for a run at the given time.
func (s *AntiGaspiService) Rule(at time.Time) models.AntiGaspiRule {
	return models.AntiGaspiRule{
		Categories:          s.cfg.Categories,
		HarvestedOnOrBefore: at.AddDate(0, 0, -s.cfg.MinAgeDays),
		MinStock:            s.cfg.MinStock,
	}
}

// Sweep flags and halves the price of every eligible product and returns how
// many rows changed. Already flagged products are never touched again.
func (s *AntiGaspiService) Sweep(ctx context.Context) (int64, error) {
	if s.redis != nil {
		release, ok, err := s.acquire(ctx)
		if err != nil {
			s.logger.Warn("anti-gaspi lock unavailable, sweeping without it", zap.Error(err))
		} else if !ok {
			s.logger.Info("anti-gaspi sweep already running elsewhere")
			return 0, nil
		} else {
			defer release()
		}
	}

	rule := s.Rule(s.now())
	var updated int64
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		n, err := r.Products.MarkAntiGaspi(ctx, rule)
		updated = n
		return err
	})
	if err != nil {
		s.logger.Error("anti-gaspi sweep failed", zap.Error(err))
		return 0, err
	}

	s.logger.Info("anti-gaspi sweep done",
		zap.Int64("products_updated", updated),
		zap.Time("harvest_cutoff", rule.HarvestedOnOrBefore))
	if updated > 0 && s.notifier != nil {
		s.notifier.AntiGaspiSwept(ctx, events.AntiGaspiSwept{
			ProductsUpdated: updated,
			HarvestCutoff:   rule.HarvestedOnOrBefore,
		})
	}
	return updated, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *AntiGaspiService) acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, sweepLockKey, token, s.cfg.LockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		err := releaseScript.Run(context.WithoutCancel(ctx), s.redis, []string{sweepLockKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to release anti-gaspi lock", zap.Error(err))
		}
	}
	return release, true, nil
}
