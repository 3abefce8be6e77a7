package report

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	summary SalesSummary
	limit   int
	err     error
}

func (m *mockRepo) Sales(context.Context, Period) (SalesSummary, error) { return m.summary, m.err }
func (m *mockRepo) Daily(context.Context, Period) ([]DailySales, error) { return nil, m.err }

func (m *mockRepo) TopItems(_ context.Context, _ Period, limit int) ([]ItemSales, error) {
	m.limit = limit
	return nil, m.err
}

func TestPeriodValidate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, Period{}.Validate())
	assert.NoError(t, Period{From: day}.Validate())
	assert.NoError(t, Period{To: day}.Validate())
	assert.NoError(t, Period{From: day, To: day.Add(time.Hour)}.Validate())
	assert.ErrorIs(t, Period{From: day, To: day}.Validate(), ErrInvalidRange)
	assert.ErrorIs(t, Period{From: day, To: day.Add(-time.Hour)}.Validate(), ErrInvalidRange)
}

func TestService_Sales(t *testing.T) {
	p := Period{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	repo := &mockRepo{summary: SalesSummary{Orders: 3, Net: decimal.RequireFromString("84.15")}}

	got, err := NewService(repo).Sales(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, got.Period)
	assert.Equal(t, 3, got.Orders)
	assert.True(t, got.Net.Equal(decimal.RequireFromString("84.15")))
}

func TestService_RejectsInvalidPeriod(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(&mockRepo{})
	bad := Period{From: day, To: day}

	_, err := svc.Sales(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.Daily(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.TopItems(context.Background(), bad, 5)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestService_TopItemsDefaultLimit(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	_, err := svc.TopItems(context.Background(), Period{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopItems, repo.limit)

	_, err = svc.TopItems(context.Background(), Period{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.limit)
}

func TestService_WrapsRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&mockRepo{err: boom}).Daily(context.Background(), Period{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "daily report")
}
