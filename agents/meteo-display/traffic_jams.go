package meteodisplay

import (
	"context"
	"math"

	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
	"meteo-stack/shared/logger"
)

// OverflowUnitID is shown for congestion levels of 10 and above
const OverflowUnitID = 9

// TrafficJams shows the city congestion level on the unit id field
type TrafficJams struct {
	metric  string
	querier SampleQuerier
	logger  logger.Logger
}

func NewTrafficJams(metric string, querier SampleQuerier, log logger.Logger) *TrafficJams {
	return &TrafficJams{
		metric:  metric,
		querier: querier,
		logger:  log,
	}
}

func (t *TrafficJams) Name() string {
	return "traffic-jams"
}

func (t *TrafficJams) Fetch(ctx context.Context) *models.DisplayData {
	level, ok, err := t.querier.FirstSample(ctx, t.metric)
	if err != nil {
		t.logger.Errorf("Failed to fetch traffic jams metric: %v", err)
		return &models.DisplayData{}
	}
	if !ok {
		return &models.DisplayData{}
	}

	return &models.DisplayData{UnitID: t.congestionCode(level)}
}

// congestionCode maps a level to the unit id digit. NaN means the exporter
// has no value and is not an error.
func (t *TrafficJams) congestionCode(level float64) *int {
	switch {
	case math.IsNaN(level):
		return nil
	case level >= 10:
		return ptr.To(OverflowUnitID)
	case level >= 0 && level <= 9:
		return ptr.To(int(level))
	default:
		t.logger.Errorf("Incorrect value for metric: %v", level)
		return nil
	}
}
