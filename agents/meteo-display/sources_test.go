package meteodisplay

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
	"meteo-stack/shared/logger"
	"meteo-stack/shared/promquery"
)

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) FirstSample(ctx context.Context, query string) (float64, bool, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

var taxiMetrics = []string{"taxi_s", "taxi_l1", "taxi_l2", "taxi_l3"}

func TestTaxiPricesAllTiers(t *testing.T) {
	querier := new(MockQuerier)
	querier.On("FirstSample", mock.Anything, "taxi_s").Return(245.0, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l1").Return(310.0, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l2").Return(420.5, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l3").Return(999.0, true, nil)

	taxi := NewTaxiPrices(taxiMetrics, querier, logger.Nop())
	first := taxi.Fetch(context.Background())
	second := taxi.Fetch(context.Background())

	require.NotNil(t, first.Visibility)
	assert.Equal(t, 245.0, *first.Visibility.S)
	assert.Equal(t, 310.0, *first.Visibility.L1)
	assert.Equal(t, 420.5, *first.Visibility.L2)
	assert.Equal(t, 999.0, *first.Visibility.L3)
	assert.Equal(t, first, second)
	querier.AssertExpectations(t)
}

func TestTaxiPricesErrorDiscardsBatch(t *testing.T) {
	var logs bytes.Buffer
	querier := new(MockQuerier)
	querier.On("FirstSample", mock.Anything, "taxi_s").Return(245.0, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l1").Return(310.0, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l2").Return(0.0, false, errors.New("bad_data"))
	querier.On("FirstSample", mock.Anything, "taxi_l3").Return(999.0, true, nil).Maybe()

	data := NewTaxiPrices(taxiMetrics, querier, logger.NewWithWriter("info", &logs)).Fetch(context.Background())

	require.NotNil(t, data.Visibility)
	assert.Equal(t, &models.Visibility{}, data.Visibility)
	assert.Contains(t, logs.String(), "bad_data")
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestTaxiPricesNonVectorLeavesGap(t *testing.T) {
	querier := new(MockQuerier)
	querier.On("FirstSample", mock.Anything, "taxi_s").Return(245.0, true, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l1").Return(0.0, false, nil)
	querier.On("FirstSample", mock.Anything, "taxi_l2").Return(420.0, true, nil)

	data := NewTaxiPrices(taxiMetrics[:3], querier, logger.Nop()).Fetch(context.Background())

	assert.Equal(t, 245.0, *data.Visibility.S)
	assert.Nil(t, data.Visibility.L1)
	assert.Equal(t, 420.0, *data.Visibility.L2)
	assert.Nil(t, data.Visibility.L3)
}

func TestTaxiPricesEmptyVectorIsAnError(t *testing.T) {
	querier := new(MockQuerier)
	querier.On("FirstSample", mock.Anything, "taxi_s").Return(0.0, false, promquery.ErrEmptyVector)

	data := NewTaxiPrices(taxiMetrics[:1], querier, logger.Nop()).Fetch(context.Background())
	assert.Nil(t, data.Visibility.S)
}

func TestTrafficJamsLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    float64
		expected *int
		logged   bool
	}{
		{"overflow", 12, ptr.To(OverflowUnitID), false},
		{"exactly ten", 10, ptr.To(OverflowUnitID), false},
		{"positive infinity", math.Inf(1), ptr.To(OverflowUnitID), false},
		{"regular level", 4, ptr.To(4), false},
		{"zero", 0, ptr.To(0), false},
		{"fraction is truncated", 4.7, ptr.To(4), false},
		{"top of range", 9, ptr.To(9), false},
		{"negative", -1, nil, true},
		{"between nine and ten", 9.5, nil, true},
		{"negative infinity", math.Inf(-1), nil, true},
		{"not a number", math.NaN(), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			querier := new(MockQuerier)
			querier.On("FirstSample", mock.Anything, "traffic_jams").Return(tt.level, true, nil)

			data := NewTrafficJams("traffic_jams", querier, logger.NewWithWriter("info", &logs)).Fetch(context.Background())

			require.NotNil(t, data)
			assert.Equal(t, tt.expected, data.UnitID)
			if tt.logged {
				assert.Contains(t, logs.String(), "Incorrect value for metric")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestTrafficJamsFailures(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		var logs bytes.Buffer
		querier := new(MockQuerier)
		querier.On("FirstSample", mock.Anything, "traffic_jams").Return(0.0, false, errors.New("timeout"))

		data := NewTrafficJams("traffic_jams", querier, logger.NewWithWriter("info", &logs)).Fetch(context.Background())
		assert.Nil(t, data.UnitID)
		assert.Contains(t, logs.String(), "timeout")
	})

	t.Run("not a vector", func(t *testing.T) {
		querier := new(MockQuerier)
		querier.On("FirstSample", mock.Anything, "traffic_jams").Return(0.0, false, nil)

		data := NewTrafficJams("traffic_jams", querier, logger.Nop()).Fetch(context.Background())
		assert.Nil(t, data.UnitID)
	})
}

func TestClock(t *testing.T) {
	clock := NewClock(time.FixedZone("MSK", 3*60*60))
	clock.now = func() time.Time { return time.Date(2024, time.March, 19, 21, 7, 0, 0, time.UTC) }

	data := clock.Fetch(context.Background())
	assert.Equal(t, 0, *data.Hours)
	assert.Equal(t, 7, *data.Minutes)
	assert.NoError(t, data.Validate())
}
