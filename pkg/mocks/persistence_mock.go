package mocks

import (
	"context"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockSubmissionRepository is a mock implementation of persistence.SubmissionRepository interface.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) GetAll(ctx context.Context) ([]models.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Save(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)

	return args.Error(0)
}

// MockMessageRepository is a mock implementation of persistence.MessageRepository interface.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) GetAll(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepository) GetBySubmission(ctx context.Context, submissionID string) ([]models.Message, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepository) Save(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Submissions *MockSubmissionRepository
	Messages    *MockMessageRepository
}

// NewMockPersistence returns a MockPersistence wired to fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Submissions: &MockSubmissionRepository{},
		Messages:    &MockMessageRepository{},
	}
}

func (m *MockPersistence) SubmissionRepository() persistence.SubmissionRepository {
	return m.Submissions
}

func (m *MockPersistence) MessageRepository() persistence.MessageRepository {
	return m.Messages
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

var _ persistence.Persistence = (*MockPersistence)(nil)
