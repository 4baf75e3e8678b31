package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReanalyzer is a mock implementation of the ingestion service
type MockReanalyzer struct {
	mock.Mock
}

func (m *MockReanalyzer) ReanalyzeAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestService_Start(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{name: "default schedule", schedule: "0 0 */6 * * *"},
		{name: "descriptor", schedule: "@hourly"},
		{name: "five fields without seconds", schedule: "0 */6 * * *", wantErr: true},
		{name: "garbage", schedule: "every tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(&config.Config{ReanalyzeSchedule: tt.schedule}, &MockReanalyzer{})
			err := service.Start()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			service.Stop()
		})
	}
}

func TestService_RunNow(t *testing.T) {
	reanalyzer := &MockReanalyzer{}
	reanalyzer.On("ReanalyzeAll", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return hasDeadline
	})).Return(errors.New("1 of 2 re-analyses failed")).Once()

	service := NewService(&config.Config{}, reanalyzer)
	service.RunNow()

	reanalyzer.AssertExpectations(t)
}
