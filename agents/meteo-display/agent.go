package meteodisplay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meteo-stack/agents/meteo-display/metar"
	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
	"meteo-stack/shared/monitoring"
	"meteo-stack/shared/promquery"
	"meteo-stack/shared/publisher"
	"meteo-stack/shared/scheduler"
)

// CycleMetrics represents the outcome of one fetch cycle
type CycleMetrics struct {
	CycleID      string   `json:"cycle_id"`
	Sources      int      `json:"sources"`
	EmptySources []string `json:"empty_sources"`
	FieldsSet    int      `json:"fields_set"`
	Published    bool     `json:"published"`
	Stored       bool     `json:"stored"`
}

// GetSummary implements the scheduler.Metrics interface
func (m CycleMetrics) GetSummary() string {
	summary := fmt.Sprintf("published %d fields from %d sources", m.FieldsSet, m.Sources)
	if len(m.EmptySources) > 0 {
		summary += fmt.Sprintf(", no data from %s", strings.Join(m.EmptySources, ", "))
	}
	return summary
}

// SnapshotSaver records published snapshots
type SnapshotSaver interface {
	Save(cycleID string, data *models.DisplayData) error
}

// MeteoDisplayAgent implements the scheduler.Agent interface. Each run
// fetches every source in order, merges the partial snapshots and
// publishes the result.
type MeteoDisplayAgent struct {
	config    *config.Config
	sources   []Source
	publisher publisher.Publisher
	store     SnapshotSaver
	metrics   *monitoring.Metrics
	logger    logger.Logger
}

func NewMeteoDisplayAgent(cfg *config.Config, pub publisher.Publisher, store SnapshotSaver, metrics *monitoring.Metrics, log logger.Logger) *MeteoDisplayAgent {
	return &MeteoDisplayAgent{
		config:    cfg,
		publisher: pub,
		store:     store,
		metrics:   metrics,
		logger:    log,
	}
}

// WithSources replaces the sources built by Initialize
func (a *MeteoDisplayAgent) WithSources(sources ...Source) *MeteoDisplayAgent {
	a.sources = sources
	return a
}

func (a *MeteoDisplayAgent) Name() string {
	return "Meteo Display Agent"
}

func (a *MeteoDisplayAgent) Initialize() error {
	a.logger.Infof("Initializing %s...", a.Name())

	if a.publisher == nil {
		return fmt.Errorf("a publisher must be configured")
	}

	if a.sources != nil {
		return nil
	}

	sources, err := a.buildSources()
	if err != nil {
		return err
	}
	a.sources = sources

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	a.logger.Infof("Sources in merge order: %s", strings.Join(names, ", "))

	return nil
}

// buildSources returns the sources in merge order. Later sources win, so
// the weather report comes last.
func (a *MeteoDisplayAgent) buildSources() ([]Source, error) {
	md := a.config.MeteoDisplay

	location, err := time.LoadLocation(md.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", md.Timezone, err)
	}
	sources := []Source{NewClock(location)}

	if md.TrafficJamsMetric != "" || len(md.TaxiMetrics) > 0 {
		queryAPI, err := promquery.NewQueryAPI(&a.config.Prometheus)
		if err != nil {
			return nil, err
		}
		querier := promquery.NewClient(queryAPI, a.config.Prometheus.QueryTimeout)

		if md.TrafficJamsMetric != "" {
			sources = append(sources, NewTrafficJams(md.TrafficJamsMetric, querier, logger.Component(a.logger, "traffic-jams")))
		}
		if len(md.TaxiMetrics) > 0 {
			sources = append(sources, NewTaxiPrices(md.TaxiMetrics, querier, logger.Component(a.logger, "taxi")))
		}
	}

	if md.Airport == "" || md.Runway == "" {
		a.logger.Info("No airport or runway configured, weather fields will stay empty")
	} else {
		a.logger.Infof("Configured for %s runway %s", md.Airport, md.Runway)
	}
	metarLog := logger.Component(a.logger, "metar")
	client := metar.NewClient(md.MetarURL, md.HTTPTimeout, metar.DefaultBackoff, metarLog)
	sources = append(sources, metar.NewDecoder(md.Airport, md.Runway, md.MetarCacheTTL, client, metarLog))

	return sources, nil
}

func (a *MeteoDisplayAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := CycleMetrics{CycleID: uuid.NewString(), Sources: len(a.sources)}
	log := a.logger.WithField("cycle", metrics.CycleID)

	critical := func(err error) error {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	snapshot, err := a.collect(ctx, log, &metrics)
	if err != nil {
		return critical(fmt.Errorf("failed to collect display data: %w", err))
	}
	metrics.FieldsSet = fieldCount(snapshot)

	if err := snapshot.Validate(); err != nil {
		return critical(err)
	}

	if err := a.publisher.Publish(ctx, snapshot); err != nil {
		return critical(fmt.Errorf("failed to update display: %w", err))
	}
	metrics.Published = true

	if a.store != nil {
		if err := a.store.Save(metrics.CycleID, snapshot); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to store snapshot: %w", err), time.Since(startTime))
			}
		} else {
			metrics.Stored = true
		}
	}

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	log.Debugf("Display update complete: %s", metrics.GetSummary())
	return nil
}

// collect fetches every source in turn. A panicking source aborts the cycle.
func (a *MeteoDisplayAgent) collect(ctx context.Context, log logger.Logger, metrics *CycleMetrics) (snapshot *models.DisplayData, err error) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source %s panicked: %v", current, r)
		}
	}()

	partials := make([]*models.DisplayData, 0, len(a.sources))
	for _, source := range a.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current = source.Name()
		sourceStart := time.Now()
		partial := source.Fetch(ctx)
		a.metrics.ObserveSource(current, time.Since(sourceStart), partial == nil)

		if partial == nil {
			log.Debugf("Source %s returned no data", current)
			metrics.EmptySources = append(metrics.EmptySources, current)
		}
		partials = append(partials, partial)
	}

	return Merge(partials...), nil
}

func fieldCount(d *models.DisplayData) int {
	set := []bool{
		d.Hours != nil, d.Minutes != nil, d.Wind != nil, d.Pressure != nil,
		d.Clouds != nil, d.Visibility != nil, d.Humidity != nil, d.Temperature != nil,
		d.HasThunder != nil, d.Events != nil, d.IsUrgent != nil, d.UnitID != nil,
		d.HasIcing != nil,
	}

	count := 0
	for _, ok := range set {
		if ok {
			count++
		}
	}
	return count
}
