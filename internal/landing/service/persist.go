package service

import (
	"context"
	"time"

	"catchcert/internal/landing/models"
)

// Persist upserts a reconciled batch. The write path is best-effort: a failed
// upsert is logged with its key and the batch continues item by item.
//
// Two store-level rules apply here:
//
//   - Midnight disambiguation: when one batch carries more than one landing for
//     the same (vessel, day) all timestamped exactly at midnight, each landing
//     receives a monotonically increasing millisecond offset in input order so
//     every one persists as a distinct record.
//   - eLog supersession: once declaration-sourced landings exist for a
//     (vessel, day), any electronic-log landings in that window are deleted.
//     Deletion failures are logged, non-fatal.
func (s *Service) Persist(ctx context.Context, landings []models.Landing) {
	landings = disambiguateMidnight(landings)

	declarationDays := make(map[models.DayKey]struct{})
	for _, landing := range landings {
		if err := s.store.Upsert(ctx, landing); err != nil {
			s.logger.ErrorContext(ctx, "landing upsert failed",
				"pln", landing.PLN,
				"landed_at", landing.LandedAt,
				"source", landing.Source,
				"error", err,
			)
			continue
		}
		if s.metrics != nil {
			s.metrics.LandingsPersisted.Inc()
		}
		if landing.Source == models.SourceDeclaration {
			declarationDays[models.DayKey{PLN: landing.PLN, Date: landing.Day()}] = struct{}{}
		}
	}

	for day := range declarationDays {
		if err := s.store.DeleteSourced(ctx, day.PLN, day.Date, models.SourceELog); err != nil {
			s.logger.WarnContext(ctx, "elog supersession delete failed",
				"pln", day.PLN,
				"date", day.Date,
				"error", err,
			)
		}
	}
}

// disambiguateMidnight offsets same-(vessel, day) landings by +0/+1/+2… ms in
// input order, but only when every landing in the group sits exactly at
// midnight. Mixed-timestamp groups are left untouched.
func disambiguateMidnight(landings []models.Landing) []models.Landing {
	groups := make(map[models.DayKey][]int)
	for i, landing := range landings {
		key := models.DayKey{PLN: landing.PLN, Date: landing.Day()}
		groups[key] = append(groups[key], i)
	}

	out := append([]models.Landing(nil), landings...)
	for _, indexes := range groups {
		if len(indexes) < 2 || !allMidnight(landings, indexes) {
			continue
		}
		for offset, i := range indexes {
			out[i].LandedAt = out[i].LandedAt.Add(time.Duration(offset) * time.Millisecond)
		}
	}
	return out
}

func allMidnight(landings []models.Landing, indexes []int) bool {
	for _, i := range indexes {
		if !landings[i].LandedAt.Equal(landings[i].Day()) {
			return false
		}
	}
	return true
}
