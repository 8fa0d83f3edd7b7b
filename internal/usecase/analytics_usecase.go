package usecase

import (
	"context"
	"net/http"
	"time"

	repo "haritsattva/internal/repository"

	"github.com/shopspring/decimal"
)

type AnalyticsUsecase struct {
	analytics repo.AnalyticsRepository
}

func NewAnalyticsUsecase(analytics repo.AnalyticsRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{analytics: analytics}
}

type AnalyticsInput struct {
	From     *time.Time
	To       *time.Time
	TopLimit int
}

type TopProductOutput struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Revenue     string `json:"revenue"`
}

type AnalyticsSummaryOutput struct {
	From              *time.Time         `json:"from,omitempty"`
	To                *time.Time         `json:"to,omitempty"`
	TotalOrders       int64              `json:"total_orders"`
	PaidOrders        int64              `json:"paid_orders"`
	Revenue           string             `json:"revenue"`
	AverageOrderValue string             `json:"average_order_value"`
	OrdersByStatus    map[string]int64   `json:"orders_by_status"`
	TopProducts       []TopProductOutput `json:"top_products"`
}

// 売上は支払済みの注文だけで計算する
func (u *AnalyticsUsecase) Summary(ctx context.Context, in AnalyticsInput) (AnalyticsSummaryOutput, error) {
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}
	if in.TopLimit == 0 {
		in.TopLimit = 5
	}
	if in.TopLimit < 1 || in.TopLimit > 50 {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid top")
	}

	rng := repo.AnalyticsRange{From: in.From, To: in.To}

	total, err := u.analytics.CountOrders(ctx, rng)
	if err != nil {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	revenue, paid, err := u.analytics.PaidRevenue(ctx, rng)
	if err != nil {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	statuses, err := u.analytics.CountByStatus(ctx, rng)
	if err != nil {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	top, err := u.analytics.TopProducts(ctx, rng, in.TopLimit)
	if err != nil {
		return AnalyticsSummaryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	avg := decimal.Zero
	if paid > 0 {
		avg = revenue.Div(decimal.NewFromInt(paid))
	}

	byStatus := make(map[string]int64, len(statuses))
	for _, s := range statuses {
		byStatus[s.Status] = s.Count
	}

	topOut := make([]TopProductOutput, 0, len(top))
	for _, p := range top {
		topOut = append(topOut, TopProductOutput{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Revenue:     money(p.Revenue),
		})
	}

	return AnalyticsSummaryOutput{
		From:              in.From,
		To:                in.To,
		TotalOrders:       total,
		PaidOrders:        paid,
		Revenue:           money(revenue),
		AverageOrderValue: money(avg),
		OrdersByStatus:    byStatus,
		TopProducts:       topOut,
	}, nil
}
