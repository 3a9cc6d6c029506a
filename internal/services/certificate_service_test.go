package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

type recordingNotifier struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	delivered []*models.Certificate
}

func (n *recordingNotifier) NotifyDecision(ctx context.Context, certificate *models.Certificate) error {
	defer n.wg.Done()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, certificate)
	return nil
}

type CertificateServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.MemoryStore
	notifier *recordingNotifier
	service  *CertificateService
	citizen  Caller
	other    Caller
	admin    Caller
}

func (suite *CertificateServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = store.NewMemoryStore()
	suite.notifier = &recordingNotifier{}
	suite.service = NewCertificateService(suite.store, suite.notifier, nil)

	suite.citizen = suite.createUser("Kavya", "kavya@example.com", models.RoleCitizen)
	suite.other = suite.createUser("Ravi", "ravi@example.com", models.RoleCitizen)
	suite.admin = suite.createUser("Officer", "officer@example.com", models.RoleAdmin)
}

func (suite *CertificateServiceTestSuite) createUser(name, email string, role models.Role) Caller {
	user := &models.User{Name: name, Email: email, Role: role}
	suite.Require().NoError(suite.store.CreateUser(suite.ctx, user))
	return Caller{ID: user.ID, Role: role}
}

func validSubmission() *SubmitCertificateRequest {
	return &SubmitCertificateRequest{
		CertificateType: models.CertificateTypeIncome,
		Subdivision:     models.SubdivisionAdyar,
		ApplicationData: &models.ApplicationData{
			Purpose:     "Scholarship application",
			Details:     "Annual family income proof for the scholarship board",
			Declaration: true,
		},
	}
}

func (suite *CertificateServiceTestSuite) submit(caller Caller) *models.Certificate {
	certificate, err := suite.service.Submit(suite.ctx, caller, validSubmission())
	suite.Require().NoError(err)
	return certificate
}

func (suite *CertificateServiceTestSuite) TestSubmitCreatesPendingApplication() {
	before := time.Now().UTC()
	certificate := suite.submit(suite.citizen)

	assert.NotEqual(suite.T(), uuid.Nil, certificate.ID)
	assert.Equal(suite.T(), models.CertificateStatusPending, certificate.Status)
	assert.Equal(suite.T(), suite.citizen.ID, certificate.ApplicantID)
	assert.Empty(suite.T(), certificate.SupportingDocuments)
	assert.NotNil(suite.T(), certificate.SupportingDocuments)
	assert.Empty(suite.T(), certificate.AdminRemarks)
	assert.Nil(suite.T(), certificate.ProcessedByID)
	assert.Nil(suite.T(), certificate.ProcessedAt)
	assert.False(suite.T(), certificate.ApplicationDate.Before(before))
	require.NotNil(suite.T(), certificate.Applicant)
	assert.Equal(suite.T(), "Kavya", certificate.Applicant.Name)
}

func (suite *CertificateServiceTestSuite) TestSubmitDefaultsDocumentUploadTime() {
	req := validSubmission()
	req.SupportingDocuments = []models.SupportingDocument{
		{DocumentType: "Ration Card", DocumentURL: "https://files.example.com/ration.pdf"},
	}

	certificate, err := suite.service.Submit(suite.ctx, suite.citizen, req)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), certificate.SupportingDocuments, 1)
	assert.False(suite.T(), certificate.SupportingDocuments[0].UploadedAt.IsZero())
}

func (suite *CertificateServiceTestSuite) TestSubmitAllowsDuplicates() {
	first := suite.submit(suite.citizen)
	second := suite.submit(suite.citizen)
	assert.NotEqual(suite.T(), first.ID, second.ID)
}

func (suite *CertificateServiceTestSuite) TestSubmitReportsEveryInvalidField() {
	_, err := suite.service.Submit(suite.ctx, suite.citizen, &SubmitCertificateRequest{
		CertificateType: "Passport",
		Subdivision:     "Mylapore",
		SupportingDocuments: []models.SupportingDocument{
			{DocumentType: "", DocumentURL: "not a url"},
		},
	})
	require.Error(suite.T(), err)

	appErr, ok := apperrors.As(err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), apperrors.KindValidation, appErr.Kind)

	var fields []string
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(suite.T(), []string{
		"certificateType",
		"subdivision",
		"applicationData",
		"supportingDocuments[0].documentType",
		"supportingDocuments[0].documentUrl",
	}, fields)

	list, err := suite.service.List(suite.ctx, suite.admin, CertificateListParams{})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), list.Certificates)
}

func (suite *CertificateServiceTestSuite) TestSubmitRequiresDeclaration() {
	req := validSubmission()
	req.ApplicationData.Declaration = false

	_, err := suite.service.Submit(suite.ctx, suite.citizen, req)
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindValidation))
}

func (suite *CertificateServiceTestSuite) TestListScopesCitizensToOwnApplications() {
	mine := suite.submit(suite.citizen)
	theirs := suite.submit(suite.other)

	list, err := suite.service.List(suite.ctx, suite.citizen, CertificateListParams{})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list.Certificates, 1)
	assert.Equal(suite.T(), mine.ID, list.Certificates[0].ID)

	list, err = suite.service.List(suite.ctx, suite.admin, CertificateListParams{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), list.Total)

	ids := []uuid.UUID{list.Certificates[0].ID, list.Certificates[1].ID}
	assert.ElementsMatch(suite.T(), []uuid.UUID{mine.ID, theirs.ID}, ids)
	for _, certificate := range list.Certificates {
		assert.NotNil(suite.T(), certificate.Applicant)
	}
}

func (suite *CertificateServiceTestSuite) TestListFiltersAndPages() {
	suite.submit(suite.citizen)
	suite.submit(suite.citizen)
	birth := validSubmission()
	birth.CertificateType = models.CertificateTypeBirth
	_, err := suite.service.Submit(suite.ctx, suite.citizen, birth)
	require.NoError(suite.T(), err)

	list, err := suite.service.List(suite.ctx, suite.admin, CertificateListParams{
		CertificateType:  string(models.CertificateTypeIncome),
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 1},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), list.Total)
	assert.Len(suite.T(), list.Certificates, 1)

	_, err = suite.service.List(suite.ctx, suite.admin, CertificateListParams{Status: "archived"})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindValidation))
}

func (suite *CertificateServiceTestSuite) TestGetByID() {
	certificate := suite.submit(suite.citizen)

	found, err := suite.service.GetByID(suite.ctx, suite.citizen, certificate.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), certificate.ID, found.ID)

	_, err = suite.service.GetByID(suite.ctx, suite.admin, certificate.ID)
	assert.NoError(suite.T(), err)

	_, err = suite.service.GetByID(suite.ctx, suite.other, certificate.ID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindForbidden))

	_, err = suite.service.GetByID(suite.ctx, suite.admin, uuid.New())
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindNotFound))
}

func (suite *CertificateServiceTestSuite) TestApproveRecordsProcessor() {
	certificate := suite.submit(suite.citizen)
	suite.notifier.wg.Add(1)

	decided, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status: models.CertificateStatusApproved,
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), models.CertificateStatusApproved, decided.Status)
	assert.Equal(suite.T(), "", decided.AdminRemarks)
	require.NotNil(suite.T(), decided.ProcessedByID)
	assert.Equal(suite.T(), suite.admin.ID, *decided.ProcessedByID)
	require.NotNil(suite.T(), decided.ProcessedAt)
	assert.False(suite.T(), decided.ProcessedAt.Before(decided.ApplicationDate))
	require.NotNil(suite.T(), decided.ProcessedBy)
	assert.Equal(suite.T(), "Officer", decided.ProcessedBy.Name)

	suite.notifier.wg.Wait()
	require.Len(suite.T(), suite.notifier.delivered, 1)
	assert.Equal(suite.T(), certificate.ID, suite.notifier.delivered[0].ID)
}

func (suite *CertificateServiceTestSuite) TestRejectRequiresRemarks() {
	certificate := suite.submit(suite.citizen)

	_, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status:       models.CertificateStatusRejected,
		AdminRemarks: "   ",
	})
	require.True(suite.T(), apperrors.Is(err, apperrors.KindValidation))

	unchanged, err := suite.service.GetByID(suite.ctx, suite.admin, certificate.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.CertificateStatusPending, unchanged.Status)

	suite.notifier.wg.Add(1)
	decided, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status:       models.CertificateStatusRejected,
		AdminRemarks: "Income proof missing",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Income proof missing", decided.AdminRemarks)
	suite.notifier.wg.Wait()
}

func (suite *CertificateServiceTestSuite) TestDecideRejectsInvalidStatus() {
	certificate := suite.submit(suite.citizen)

	_, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status: models.CertificateStatusPending,
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindValidation))
}

func (suite *CertificateServiceTestSuite) TestDecideRequiresAdmin() {
	certificate := suite.submit(suite.citizen)

	_, err := suite.service.Decide(suite.ctx, suite.citizen, certificate.ID, &DecideCertificateRequest{
		Status: models.CertificateStatusApproved,
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindForbidden))

	unchanged, err := suite.service.GetByID(suite.ctx, suite.citizen, certificate.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.CertificateStatusPending, unchanged.Status)
}

func (suite *CertificateServiceTestSuite) TestDecideMissingApplication() {
	_, err := suite.service.Decide(suite.ctx, suite.admin, uuid.New(), &DecideCertificateRequest{
		Status: models.CertificateStatusApproved,
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindNotFound))
}

func (suite *CertificateServiceTestSuite) TestDecideTwiceConflicts() {
	certificate := suite.submit(suite.citizen)
	suite.notifier.wg.Add(1)

	_, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status: models.CertificateStatusApproved,
	})
	require.NoError(suite.T(), err)
	suite.notifier.wg.Wait()

	_, err = suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
		Status:       models.CertificateStatusRejected,
		AdminRemarks: "Changed my mind",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindConflict))

	current, err := suite.service.GetByID(suite.ctx, suite.admin, certificate.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.CertificateStatusApproved, current.Status)
}

func (suite *CertificateServiceTestSuite) TestConcurrentDecisionsOneWinner() {
	certificate := suite.submit(suite.citizen)
	suite.notifier.wg.Add(1)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, status := range []models.CertificateStatus{models.CertificateStatusApproved, models.CertificateStatusRejected} {
		wg.Add(1)
		go func(status models.CertificateStatus) {
			defer wg.Done()
			_, err := suite.service.Decide(suite.ctx, suite.admin, certificate.ID, &DecideCertificateRequest{
				Status:       status,
				AdminRemarks: "reviewed",
			})
			errs <- err
		}(status)
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.Is(err, apperrors.KindConflict):
			conflicts++
		}
	}
	assert.Equal(suite.T(), 1, succeeded)
	assert.Equal(suite.T(), 1, conflicts)
	suite.notifier.wg.Wait()
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceTestSuite))
}
