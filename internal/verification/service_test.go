package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

// MockVerificationStore is a mock implementation of VerificationStore
type MockVerificationStore struct {
	mock.Mock
}

func (m *MockVerificationStore) UpsertVerification(ctx context.Context, v *types.DoctorVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVerificationStore) GetVerificationByDoctorID(ctx context.Context, doctorID string) (*types.DoctorVerification, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DoctorVerification), args.Error(1)
}

func (m *MockVerificationStore) GetVerificationsByStatus(ctx context.Context, status types.VerificationStatus) ([]*types.DoctorVerification, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.DoctorVerification), args.Error(1)
}

func (m *MockVerificationStore) SetVerificationStatus(ctx context.Context, doctorID string, status types.VerificationStatus, note string) error {
	args := m.Called(ctx, doctorID, status, note)
	return args.Error(0)
}

func setupTestService(t *testing.T) (*Service, *MockVerificationStore) {
	t.Helper()

	store := &MockVerificationStore{}
	cfg := &config.Config{LogLevel: "error"}
	svc := New(cfg, logger.New("error"), store)

	return svc, store
}

func TestSubmit_ResetsReviewState(t *testing.T) {
	svc, store := setupTestService(t)

	store.On("UpsertVerification", mock.Anything, mock.MatchedBy(func(v *types.DoctorVerification) bool {
		return v.Status == types.VerificationPending && v.ReviewedAt == nil && v.ReviewerNote == ""
	})).Return(nil)

	reviewed := time.Now()
	submitted, err := svc.Submit(context.Background(), &types.DoctorVerification{
		DoctorID:       "doc-1",
		RegistrationNo: "MCI-12345",
		Council:        "Medical Council of India",
		Status:         types.VerificationRejected,
		ReviewerNote:   "blurry document",
		ReviewedAt:     &reviewed,
	})
	require.NoError(t, err)

	assert.Equal(t, types.VerificationPending, submitted.Status)
	assert.Empty(t, submitted.ReviewerNote)
	assert.Nil(t, submitted.ReviewedAt)
	assert.NotEmpty(t, submitted.ID)
}

func TestSubmit_Validation(t *testing.T) {
	svc, store := setupTestService(t)

	_, err := svc.Submit(context.Background(), &types.DoctorVerification{RegistrationNo: "MCI-1"})
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), &types.DoctorVerification{DoctorID: "doc-1"})
	assert.Error(t, err)

	store.AssertNotCalled(t, "UpsertVerification", mock.Anything, mock.Anything)
}

func TestApprove(t *testing.T) {
	svc, store := setupTestService(t)

	store.On("GetVerificationByDoctorID", mock.Anything, "doc-1").
		Return(&types.DoctorVerification{DoctorID: "doc-1", Status: types.VerificationPending}, nil)
	store.On("SetVerificationStatus", mock.Anything, "doc-1", types.VerificationApproved, "credentials check out").
		Return(nil)

	err := svc.Approve(context.Background(), "doc-1", "credentials check out")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestApprove_AlreadyReviewed(t *testing.T) {
	svc, store := setupTestService(t)

	store.On("GetVerificationByDoctorID", mock.Anything, "doc-1").
		Return(&types.DoctorVerification{DoctorID: "doc-1", Status: types.VerificationApproved}, nil)

	err := svc.Approve(context.Background(), "doc-1", "")
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeConflict, medErr.Type)
	store.AssertNotCalled(t, "SetVerificationStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_RequiresNote(t *testing.T) {
	svc, store := setupTestService(t)

	err := svc.Reject(context.Background(), "doc-1", "")
	require.Error(t, err)

	var medErr *types.MedAidError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, types.ErrorTypeValidation, medErr.Type)
	store.AssertNotCalled(t, "GetVerificationByDoctorID", mock.Anything, mock.Anything)
}

func TestVerificationHandlers(t *testing.T) {
	svc, store := setupTestService(t)

	router := mux.NewRouter()
	svc.setupRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	t.Run("submit", func(t *testing.T) {
		store.On("UpsertVerification", mock.Anything, mock.AnythingOfType("*types.DoctorVerification")).
			Return(nil).Once()

		body, _ := json.Marshal(map[string]string{
			"registration_no": "MCI-12345",
			"specialty":       "Cardiology",
		})

		req, _ := http.NewRequest("POST", srv.URL+"/api/v1/verifications", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "doc-1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var v types.DoctorVerification
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
		assert.Equal(t, "doc-1", v.DoctorID)
		assert.Equal(t, types.VerificationPending, v.Status)
	})

	t.Run("pending queue", func(t *testing.T) {
		store.On("GetVerificationsByStatus", mock.Anything, types.VerificationPending).
			Return([]*types.DoctorVerification{
				{DoctorID: "doc-1", Status: types.VerificationPending},
				{DoctorID: "doc-2", Status: types.VerificationPending},
			}, nil).Once()

		resp, err := http.Get(srv.URL + "/api/v1/verifications/pending")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 2, body.Count)
	})

	t.Run("reject without note", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{})

		req, _ := http.NewRequest("POST", srv.URL+"/api/v1/verifications/doc-1/reject", bytes.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("status not found maps to 404", func(t *testing.T) {
		store.On("GetVerificationByDoctorID", mock.Anything, "ghost").
			Return(nil, types.NewNotFoundError("VERIFICATION_NOT_FOUND", "no verification")).Once()

		resp, err := http.Get(srv.URL + "/api/v1/verifications/ghost")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
