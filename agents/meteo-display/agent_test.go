package meteodisplay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
	"meteo-stack/shared/scheduler"
)

type staticSource struct {
	name  string
	data  *models.DisplayData
	panic bool
	calls int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(ctx context.Context) *models.DisplayData {
	s.calls++
	if s.panic {
		panic("sensor unplugged")
	}
	return s.data
}

type recordingPublisher struct {
	published []*models.DisplayData
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, data *models.DisplayData) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, data)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingStore struct{}

func (failingStore) Save(cycleID string, data *models.DisplayData) error {
	return errors.New("disk full")
}

type outcome struct {
	success  scheduler.Metrics
	partial  error
	critical error
}

func (o *outcome) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, _ time.Duration) { o.success = m },
		OnPartialFailure:  func(err error, _ time.Duration) { o.partial = err },
		OnCriticalFailure: func(err error, _ time.Duration) { o.critical = err },
	}
}

func newTestAgent(pub *recordingPublisher, store SnapshotSaver, sources ...Source) *MeteoDisplayAgent {
	agent := NewMeteoDisplayAgent(&config.Config{}, pub, store, nil, logger.Nop())
	return agent.WithSources(sources...)
}

func TestRunOncePublishesMergedSnapshot(t *testing.T) {
	pub := &recordingPublisher{}
	agent := newTestAgent(pub, nil,
		&staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(10), Minutes: ptr.To(5)}},
		&staticSource{name: "traffic-jams", data: &models.DisplayData{UnitID: ptr.To(3)}},
		&staticSource{name: "taxi", data: &models.DisplayData{Visibility: &models.Visibility{S: ptr.To(100.0)}}},
		&staticSource{name: "metar", data: &models.DisplayData{UnitID: ptr.To(7), Wind: &models.DisplayWind{Heading: ptr.To(90)}}},
	)
	require.NoError(t, agent.Initialize())

	var o outcome
	require.NoError(t, agent.RunOnce(context.Background(), o.events()))

	require.Len(t, pub.published, 1)
	snapshot := pub.published[0]
	assert.Equal(t, 10, *snapshot.Hours)
	assert.Equal(t, 7, *snapshot.UnitID, "weather report is merged last")
	assert.Equal(t, 100.0, *snapshot.Visibility.S)
	assert.Equal(t, 90, *snapshot.Wind.Heading)

	require.NotNil(t, o.success)
	assert.Nil(t, o.critical)
	metrics := o.success.(CycleMetrics)
	assert.Equal(t, 5, metrics.FieldsSet)
	assert.True(t, metrics.Published)
	assert.False(t, metrics.Stored)
	assert.NotEmpty(t, metrics.CycleID)
}

func TestRunOnceEmptySources(t *testing.T) {
	pub := &recordingPublisher{}
	agent := newTestAgent(pub, nil,
		&staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(1), Minutes: ptr.To(2)}},
		&staticSource{name: "metar"},
	)

	var o outcome
	require.NoError(t, agent.RunOnce(context.Background(), o.events()))

	assert.Equal(t, "published 2 fields from 2 sources, no data from metar", o.success.GetSummary())
	require.Len(t, pub.published, 1)
}

func TestRunOnceValidationFailureSkipsPublish(t *testing.T) {
	pub := &recordingPublisher{}
	agent := newTestAgent(pub, nil, &staticSource{name: "traffic-jams", data: &models.DisplayData{UnitID: ptr.To(12)}})

	var o outcome
	err := agent.RunOnce(context.Background(), o.events())

	require.Error(t, err)
	assert.Empty(t, pub.published)
	assert.ErrorIs(t, o.critical, err)
	assert.Nil(t, o.success)
}

func TestRunOncePublishFailureIsCritical(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	agent := newTestAgent(pub, nil, &staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(1)}})

	var o outcome
	err := agent.RunOnce(context.Background(), o.events())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update display")
	assert.ErrorIs(t, err, pub.err)
	assert.NotNil(t, o.critical)
}

func TestRunOnceSourcePanicAbortsCycle(t *testing.T) {
	pub := &recordingPublisher{}
	after := &staticSource{name: "metar", data: &models.DisplayData{Hours: ptr.To(1)}}
	agent := newTestAgent(pub, nil,
		&staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(1)}},
		&staticSource{name: "taxi", panic: true},
		after,
	)

	var o outcome
	err := agent.RunOnce(context.Background(), o.events())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source taxi panicked")
	assert.Empty(t, pub.published)
	assert.Zero(t, after.calls)
	assert.NotNil(t, o.critical)
}

func TestRunOnceStoreFailureIsPartial(t *testing.T) {
	pub := &recordingPublisher{}
	agent := newTestAgent(pub, failingStore{}, &staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(1)}})

	var o outcome
	require.NoError(t, agent.RunOnce(context.Background(), o.events()))

	require.Len(t, pub.published, 1)
	require.Error(t, o.partial)
	assert.Contains(t, o.partial.Error(), "disk full")
	require.NotNil(t, o.success)
	assert.False(t, o.success.(CycleMetrics).Stored)
}

func TestRunOnceCancelledContext(t *testing.T) {
	pub := &recordingPublisher{}
	agent := newTestAgent(pub, nil, &staticSource{name: "clock", data: &models.DisplayData{Hours: ptr.To(1)}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := agent.RunOnce(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.published)
}

func TestInitializeRequiresPublisher(t *testing.T) {
	agent := NewMeteoDisplayAgent(&config.Config{}, nil, nil, nil, logger.Nop())
	assert.Error(t, agent.Initialize())
}

func TestBuildSourcesOrder(t *testing.T) {
	cfg := &config.Config{
		MeteoDisplay: config.MeteoDisplayConfig{
			Airport:           "UUEE",
			Runway:            "24L",
			MetarURL:          "http://localhost/metar",
			MetarCacheTTL:     time.Minute,
			HTTPTimeout:       time.Second,
			TaxiMetrics:       []string{"taxi_s"},
			TrafficJamsMetric: "traffic_jams",
			Timezone:          "UTC",
		},
		Prometheus: config.PrometheusConfig{URL: "http://localhost:9090", QueryTimeout: time.Second},
	}

	agent := NewMeteoDisplayAgent(cfg, &recordingPublisher{}, nil, nil, logger.Nop())
	require.NoError(t, agent.Initialize())

	names := make([]string, 0, len(agent.sources))
	for _, s := range agent.sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"clock", "traffic-jams", "taxi", "metar"}, names)
}

func TestBuildSourcesWithoutMetrics(t *testing.T) {
	cfg := &config.Config{MeteoDisplay: config.MeteoDisplayConfig{Timezone: "UTC"}}

	agent := NewMeteoDisplayAgent(cfg, &recordingPublisher{}, nil, nil, logger.Nop())
	require.NoError(t, agent.Initialize())

	require.Len(t, agent.sources, 2)
	assert.Equal(t, "clock", agent.sources[0].Name())
	assert.Equal(t, "metar", agent.sources[1].Name())
	assert.Nil(t, agent.sources[1].Fetch(context.Background()), "no airport configured")
}

func TestBuildSourcesBadTimezone(t *testing.T) {
	cfg := &config.Config{MeteoDisplay: config.MeteoDisplayConfig{Timezone: "Mars/Olympus"}}

	agent := NewMeteoDisplayAgent(cfg, &recordingPublisher{}, nil, nil, logger.Nop())
	assert.Error(t, agent.Initialize())
}

func TestFieldCount(t *testing.T) {
	assert.Zero(t, fieldCount(&models.DisplayData{}))
	assert.Equal(t, 3, fieldCount(&models.DisplayData{
		HasThunder: ptr.To(false),
		Clouds:     &models.Clouds{},
		Events:     ptr.To(0),
	}))
}
