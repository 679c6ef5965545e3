package meteodisplay

import (
	"context"

	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
	"meteo-stack/shared/logger"
)

const priceTiers = 4

// TaxiPrices shows up to four price metrics on the visibility fields,
// in order s, l1, l2, l3
type TaxiPrices struct {
	metrics []string
	querier SampleQuerier
	logger  logger.Logger
}

func NewTaxiPrices(metrics []string, querier SampleQuerier, log logger.Logger) *TaxiPrices {
	return &TaxiPrices{
		metrics: metrics,
		querier: querier,
		logger:  log,
	}
}

func (t *TaxiPrices) Name() string {
	return "taxi"
}

// Fetch queries every metric in turn. A metric without a vector result
// leaves its tier empty. Any query error discards the whole batch so the
// display never mixes prices from different moments.
func (t *TaxiPrices) Fetch(ctx context.Context) *models.DisplayData {
	prices := make([]*float64, priceTiers)

	for i, metric := range t.metrics {
		if i >= priceTiers {
			break
		}

		value, ok, err := t.querier.FirstSample(ctx, metric)
		if err != nil {
			t.logger.Errorf("Failed to fetch metrics: %v", err)
			prices = make([]*float64, priceTiers)
			break
		}
		if !ok {
			t.logger.Debugf("Metric %s returned no vector, leaving tier %d empty", metric, i)
			continue
		}
		prices[i] = ptr.To(value)
	}

	return &models.DisplayData{
		Visibility: &models.Visibility{
			S:  prices[0],
			L1: prices[1],
			L2: prices[2],
			L3: prices[3],
		},
	}
}
