package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spcpulse/internal/spc"
)

// MockEngine is a mock for the Engine interface
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Analyze(ctx context.Context, ds spc.Dataset, opts spc.AnalyzeOptions) (*spc.Analysis, error) {
	args := m.Called(ctx, ds, opts)
	analysis, _ := args.Get(0).(*spc.Analysis)
	return analysis, args.Error(1)
}
