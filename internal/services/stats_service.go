// internal/services/stats_service.go
package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/metrics"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
)

const trendWindow = 30 * 24 * time.Hour

type StatusCount struct {
	Status models.CertificateStatus `json:"status"`
	Count  int64                    `json:"count"`
}

type TypeCount struct {
	Type  models.CertificateType `json:"type"`
	Count int64                  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DashboardSummary struct {
	StatusDistribution          []StatusCount `json:"statusDistribution"`
	CertificateTypeDistribution []TypeCount   `json:"certificateTypeDistribution"`
	DailyTrends                 []DailyCount  `json:"dailyTrends"`
	Total                       int64         `json:"total"`
}

type StatsService struct {
	store   store.CertificateStore
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewStatsService(certificates store.CertificateStore, m *metrics.Metrics) *StatsService {
	return &StatsService{
		store:   certificates,
		metrics: m,
		now:     time.Now,
	}
}

// DashboardSummary runs the three aggregations concurrently. The first store
// failure cancels the others.
func (s *StatsService) DashboardSummary(ctx context.Context, caller Caller) (*DashboardSummary, error) {
	if err := caller.require(models.RoleAdmin, "only administrators can view statistics"); err != nil {
		return nil, err
	}
	defer s.metrics.ObserveDashboard(time.Now())

	since := s.now().Add(-trendWindow)

	var (
		byStatus map[models.CertificateStatus]int64
		byType   map[models.CertificateType]int64
		byDay    map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.store.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byType, err = s.store.CountByType(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byDay, err = s.store.CountByDay(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Dependency("failed to aggregate dashboard statistics", err)
	}

	summary := &DashboardSummary{
		StatusDistribution:          statusDistribution(byStatus),
		CertificateTypeDistribution: typeDistribution(byType),
		DailyTrends:                 dailyTrends(byDay),
	}
	for _, entry := range summary.StatusDistribution {
		summary.Total += entry.Count
	}
	return summary, nil
}

// statusDistribution always lists every status, zeros included.
func statusDistribution(counts map[models.CertificateStatus]int64) []StatusCount {
	out := make([]StatusCount, 0, len(models.CertificateStatuses))
	for _, status := range models.CertificateStatuses {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

func typeDistribution(counts map[models.CertificateType]int64) []TypeCount {
	out := make([]TypeCount, 0, len(counts))
	for certificateType, count := range counts {
		if count > 0 {
			out = append(out, TypeCount{Type: certificateType, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func dailyTrends(counts map[string]int64) []DailyCount {
	out := make([]DailyCount, 0, len(counts))
	for day, count := range counts {
		if count > 0 {
			out = append(out, DailyCount{Date: day, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
