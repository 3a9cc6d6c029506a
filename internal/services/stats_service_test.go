package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
)

type mockCertificateStore struct {
	mock.Mock
	store.CertificateStore
}

func (m *mockCertificateStore) CountByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.CertificateStatus]int64)
	return counts, args.Error(1)
}

func (m *mockCertificateStore) CountByType(ctx context.Context) (map[models.CertificateType]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.CertificateType]int64)
	return counts, args.Error(1)
}

func (m *mockCertificateStore) CountByDay(ctx context.Context, since time.Time) (map[string]int64, error) {
	args := m.Called(ctx, since)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

var adminCaller = Caller{ID: uuid.New(), Role: models.RoleAdmin}

func seedCertificate(t *testing.T, s *store.MemoryStore, certType models.CertificateType, status models.CertificateStatus, at time.Time) {
	t.Helper()
	certificate := &models.Certificate{
		ApplicantID:     uuid.New(),
		CertificateType: certType,
		Subdivision:     models.SubdivisionAmbattur,
		Status:          status,
		ApplicationData: &models.ApplicationData{Purpose: "purpose text", Details: "details text long enough", Declaration: true},
		ApplicationDate: at,
	}
	require.NoError(t, s.CreateCertificate(context.Background(), certificate))
}

func TestDashboardSummaryEmpty(t *testing.T) {
	service := NewStatsService(store.NewMemoryStore(), nil)

	summary, err := service.DashboardSummary(context.Background(), adminCaller)
	require.NoError(t, err)

	assert.Equal(t, []StatusCount{
		{Status: models.CertificateStatusPending, Count: 0},
		{Status: models.CertificateStatusApproved, Count: 0},
		{Status: models.CertificateStatusRejected, Count: 0},
	}, summary.StatusDistribution)
	assert.Empty(t, summary.CertificateTypeDistribution)
	assert.Empty(t, summary.DailyTrends)
	assert.Equal(t, int64(0), summary.Total)
}

func TestDashboardSummaryAggregates(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	seedCertificate(t, s, models.CertificateTypeIncome, models.CertificateStatusPending, now.Add(-time.Hour))
	seedCertificate(t, s, models.CertificateTypeIncome, models.CertificateStatusApproved, now.Add(-25*time.Hour))
	seedCertificate(t, s, models.CertificateTypeBirth, models.CertificateStatusRejected, now.Add(-2*time.Hour))
	seedCertificate(t, s, models.CertificateTypeCommunity, models.CertificateStatusPending, now.Add(-3*time.Hour))
	seedCertificate(t, s, models.CertificateTypeBirth, models.CertificateStatusPending, now.Add(-31*24*time.Hour))

	service := NewStatsService(s, nil)
	service.now = func() time.Time { return now }

	summary, err := service.DashboardSummary(context.Background(), adminCaller)
	require.NoError(t, err)

	assert.Equal(t, []StatusCount{
		{Status: models.CertificateStatusPending, Count: 3},
		{Status: models.CertificateStatusApproved, Count: 1},
		{Status: models.CertificateStatusRejected, Count: 1},
	}, summary.StatusDistribution)
	assert.Equal(t, int64(5), summary.Total)

	assert.Equal(t, []TypeCount{
		{Type: models.CertificateTypeBirth, Count: 2},
		{Type: models.CertificateTypeIncome, Count: 2},
		{Type: models.CertificateTypeCommunity, Count: 1},
	}, summary.CertificateTypeDistribution)

	assert.Equal(t, []DailyCount{
		{Date: "2024-06-14", Count: 1},
		{Date: "2024-06-15", Count: 3},
	}, summary.DailyTrends)
}

func TestDashboardSummaryRequiresAdmin(t *testing.T) {
	service := NewStatsService(store.NewMemoryStore(), nil)

	_, err := service.DashboardSummary(context.Background(), Caller{ID: uuid.New(), Role: models.RoleCitizen})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestDashboardSummaryStoreFailure(t *testing.T) {
	m := &mockCertificateStore{}
	m.On("CountByStatus", mock.Anything).Return(map[models.CertificateStatus]int64{}, nil)
	m.On("CountByType", mock.Anything).Return(nil, errors.New("connection reset"))
	m.On("CountByDay", mock.Anything, mock.AnythingOfType("time.Time")).Return(map[string]int64{}, nil)

	service := NewStatsService(m, nil)

	_, err := service.DashboardSummary(context.Background(), adminCaller)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindDependency))
	assert.Contains(t, err.Error(), "connection reset")
}
