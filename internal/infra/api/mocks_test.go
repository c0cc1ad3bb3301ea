//go:build !integration

package api_test

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/api"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

const (
	testAPIKey    = "test-api-key"
	testQueueName = "spot-image-queue"
	testJWTSecret = "test-secret"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// newTestServer wires the server against the given mocks with test auth.
func newTestServer(planUC usecase.PlanUseCase, guideUC usecase.GuideUseCase, jobUC usecase.ImageJobUseCase) *api.Server {
	auth := api.NewAuthManager(testJWTSecret, 10*time.Minute)
	return api.NewServer(planUC, guideUC, jobUC, auth, testAPIKey, testQueueName, 5*time.Second, nopLogger())
}

type mockPlanUC struct {
	CreateFunc func(ctx context.Context, title, destination string, days int, interests []string) (*model.TravelPlan, error)
	GetFunc    func(ctx context.Context, id string) (*model.TravelPlan, error)
	ListFunc   func(ctx context.Context) ([]*model.TravelPlan, error)
	DeleteFunc func(ctx context.Context, id string) error
}

var _ usecase.PlanUseCase = (*mockPlanUC)(nil)

func (m *mockPlanUC) Create(ctx context.Context, title, destination string, days int, interests []string) (*model.TravelPlan, error) {
	return m.CreateFunc(ctx, title, destination, days, interests)
}

func (m *mockPlanUC) Get(ctx context.Context, id string) (*model.TravelPlan, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockPlanUC) List(ctx context.Context) ([]*model.TravelPlan, error) {
	return m.ListFunc(ctx)
}

func (m *mockPlanUC) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type mockGuideUC struct {
	GenerateFunc func(ctx context.Context, planID string) (*usecase.GuideResult, error)
	SpotsFunc    func(ctx context.Context, planID string) ([]*model.Spot, error)
}

var _ usecase.GuideUseCase = (*mockGuideUC)(nil)

func (m *mockGuideUC) Generate(ctx context.Context, planID string) (*usecase.GuideResult, error) {
	return m.GenerateFunc(ctx, planID)
}

func (m *mockGuideUC) Spots(ctx context.Context, planID string) ([]*model.Spot, error) {
	return m.SpotsFunc(ctx, planID)
}

type mockJobUC struct {
	LeaseFunc   func(ctx context.Context, limit int, workerID string) ([]*model.ImageJob, error)
	ClaimFunc   func(ctx context.Context, planID, spotName, workerID string) (*model.ImageJob, error)
	ExecuteFunc func(ctx context.Context, job *model.ImageJob) usecase.ExecReport
	RequeueFunc func(ctx context.Context, jobID, idemKey string) (*model.ImageJob, error)
	GetFunc     func(ctx context.Context, jobID string) (*model.ImageJob, error)
	ListFunc    func(ctx context.Context, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error)
	StatsFunc   func(ctx context.Context) (map[model.ImageJobStatus]int, error)
}

var _ usecase.ImageJobUseCase = (*mockJobUC)(nil)

func (m *mockJobUC) Lease(ctx context.Context, limit int, workerID string) ([]*model.ImageJob, error) {
	return m.LeaseFunc(ctx, limit, workerID)
}

func (m *mockJobUC) Claim(ctx context.Context, planID, spotName, workerID string) (*model.ImageJob, error) {
	return m.ClaimFunc(ctx, planID, spotName, workerID)
}

func (m *mockJobUC) Execute(ctx context.Context, job *model.ImageJob) usecase.ExecReport {
	return m.ExecuteFunc(ctx, job)
}

func (m *mockJobUC) Requeue(ctx context.Context, jobID, idemKey string) (*model.ImageJob, error) {
	return m.RequeueFunc(ctx, jobID, idemKey)
}

func (m *mockJobUC) Get(ctx context.Context, jobID string) (*model.ImageJob, error) {
	return m.GetFunc(ctx, jobID)
}

func (m *mockJobUC) List(ctx context.Context, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error) {
	return m.ListFunc(ctx, status, limit)
}

func (m *mockJobUC) Stats(ctx context.Context) (map[model.ImageJobStatus]int, error) {
	return m.StatsFunc(ctx)
}
