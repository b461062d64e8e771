package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twardoch/zmarkdown/internal/db"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// PurgeInput contains parameters for the PurgeCache operation.
type PurgeInput struct {
	Target        string // optional; empty purges every target
	OlderThanDays *int   // default: cfg.CacheMaxAgeDays; 0 purges everything
}

// PurgeOutput contains the result of the PurgeCache operation.
type PurgeOutput struct {
	Purged  int64  `json:"purged"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
}

// MaxRetentionDays bounds older_than_days.
const MaxRetentionDays = 36500

const secondsPerDay = 24 * 60 * 60

// PurgeCache removes cached renders not accessed within the retention window.
func PurgeCache(ctx context.Context, rt *Runtime, input PurgeInput) (*PurgeOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceled(err)
	}
	if rt.DB == nil {
		return nil, errors.NewInvalidRequest("render cache is not available")
	}

	target := strings.TrimSpace(input.Target)
	if target != "" {
		t, err := processor.ParseTarget(target)
		if err != nil {
			return nil, err
		}
		target = string(t)
	}

	days := rt.Config.CacheMaxAgeDays
	if input.OlderThanDays != nil {
		days = *input.OlderThanDays
	}
	if days < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}
	if days > MaxRetentionDays {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("older_than_days must be at most %d", MaxRetentionDays))
	}

	cutoff := time.Now().Unix() - int64(days)*secondsPerDay
	if days == 0 {
		// Include rows touched within the current second.
		cutoff++
	}

	n, err := db.Purge(rt.DB, target, cutoff)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  n,
		Target:  target,
		Message: purgeMessage(n, days),
	}, nil
}

func purgeMessage(n int64, days int) string {
	noun := "renders"
	if n == 1 {
		noun = "render"
	}
	if days == 0 {
		return fmt.Sprintf("purged %d cached %s", n, noun)
	}
	return fmt.Sprintf("purged %d cached %s older than %d days", n, noun, days)
}

// CacheStats reports render cache usage.
func CacheStats(ctx context.Context, rt *Runtime) (*db.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceled(err)
	}
	if rt.DB == nil {
		return nil, errors.NewInvalidRequest("render cache is not available")
	}
	return db.GetStats(rt.DB)
}
