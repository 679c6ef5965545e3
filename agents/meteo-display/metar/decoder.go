package metar

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
	"meteo-stack/shared/logger"
)

// Fetcher returns the raw METAR text for a station
type Fetcher interface {
	FetchMETAR(ctx context.Context, station string) (string, error)
}

// Decoder turns the latest METAR of an airport into the weather part of the
// display snapshot. The last successfully parsed report is kept and reused
// until it is older than the TTL; failed fetches never clear it.
type Decoder struct {
	airport string
	runway  string
	ttl     time.Duration
	fetcher Fetcher
	logger  logger.Logger
	now     func() time.Time

	mu          sync.Mutex
	lastMetar   *models.Metar
	lastMetarAt *time.Time
}

func NewDecoder(airport, runway string, ttl time.Duration, fetcher Fetcher, log logger.Logger) *Decoder {
	return &Decoder{
		airport: airport,
		runway:  runway,
		ttl:     ttl,
		fetcher: fetcher,
		logger:  log,
		now:     time.Now,
	}
}

func (d *Decoder) Name() string {
	return "metar"
}

// Fetch returns the decoded weather, or nil when the airport or runway is
// not configured or no report could be obtained.
func (d *Decoder) Fetch(ctx context.Context) *models.DisplayData {
	if d.airport == "" || d.runway == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastMetar != nil && d.lastMetarAt != nil && d.now().Sub(*d.lastMetarAt) < d.ttl {
		d.logger.Debugf("Using cached METAR observed at %s", d.lastMetarAt.Format(time.RFC3339))
		return Decode(d.lastMetar, d.runway)
	}

	report, err := d.retrieve(ctx)
	if err != nil {
		d.logger.Errorf("Failed to fetch: %v", err)
		return nil
	}

	d.lastMetar = report
	d.lastMetarAt = nil
	if observedAt, ok := ObservedAt(report, d.now()); ok {
		d.lastMetarAt = &observedAt
	} else {
		d.logger.Warnf("METAR has no complete observation time, it will be fetched again next cycle: %s", report.Raw)
	}

	return Decode(report, d.runway)
}

func (d *Decoder) retrieve(ctx context.Context) (*models.Metar, error) {
	raw, err := d.fetcher.FetchMETAR(ctx, d.airport)
	if err != nil {
		if !errors.Is(err, ErrRetrieval) {
			return nil, errors.Join(ErrRetrieval, err)
		}
		return nil, err
	}

	report, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(report.Unhandled) > 0 {
		d.logger.Debugf("Ignored METAR groups: %v", report.Unhandled)
	}

	return report, nil
}

// Decode maps a parsed report onto the display fields. The wind, pressure
// and clouds groups are always present, with nil members for anything the
// report does not carry.
func Decode(m *models.Metar, runway string) *models.DisplayData {
	data := &models.DisplayData{
		Wind:     &models.DisplayWind{},
		Pressure: &models.Pressure{},
		Clouds:   &models.Clouds{},
	}

	decodeClouds(m, data.Clouds)
	data.Events = decodeEvents(m)
	data.HasIcing = decodeIcing(m, runway)
	data.HasThunder = decodeThunder(m)
	decodeWind(m, runway, data.Wind)
	data.Temperature = clone(m.Temperature)
	decodePressure(m, data.Pressure)

	return data
}

// The display has no overall coverage field, so the highest layer stands in for N
func decodeClouds(m *models.Metar, clouds *models.Clouds) {
	var layers []models.CloudLayer
	for _, layer := range m.Clouds {
		if layer.Height != nil {
			layers = append(layers, layer)
		}
	}
	if len(layers) == 0 {
		return
	}

	sort.SliceStable(layers, func(i, j int) bool {
		return *layers[i].Height < *layers[j].Height
	})

	lowest := layers[0]
	highest := layers[len(layers)-1]

	clouds.Height = ptr.To(*lowest.Height)
	if index, ok := CloudQuantityIndex(lowest.Quantity); ok {
		clouds.Nh = ptr.To(index)
	}
	if index, ok := CloudQuantityIndex(highest.Quantity); ok {
		clouds.N = ptr.To(index)
	}
}

func decodeEvents(m *models.Metar) *int {
	var worst *int
	for _, condition := range m.WeatherConditions {
		for _, phenomenon := range condition.Phenomena {
			severity := int(PhenomenonSeverity(phenomenon))
			if worst == nil || severity > *worst {
				worst = ptr.To(severity)
			}
		}
	}
	return worst
}

// decodeIcing only looks at deposits reported for the configured runway
func decodeIcing(m *models.Metar, runway string) *bool {
	var icing *bool
	for _, deposit := range m.RunwayDeposits {
		if deposit.Runway != runway {
			continue
		}
		if icing == nil {
			icing = ptr.To(false)
		}
		if deposit.DepositType == models.DepositIce {
			*icing = true
		}
	}
	return icing
}

func decodeThunder(m *models.Metar) *bool {
	if len(m.WeatherConditions) == 0 {
		return nil
	}

	for _, condition := range m.WeatherConditions {
		if condition.Descriptive == models.DescriptiveThunderstorm {
			return ptr.To(true)
		}
		for _, phenomenon := range condition.Phenomena {
			if phenomenon == models.PhenomenonThunderstorm {
				return ptr.To(true)
			}
		}
	}
	return ptr.To(false)
}

// Crosswind needs an exact direction, so it is left unknown for variable wind
func decodeWind(m *models.Metar, runway string, wind *models.DisplayWind) {
	if m.Wind == nil {
		return
	}

	wind.Heading = clone(m.Wind.Degrees)
	wind.Speed = ptr.To(m.Wind.Speed)
	wind.MaxSpeed = clone(m.Wind.Gust)

	if m.Wind.Degrees == nil {
		return
	}
	heading, ok := runwayHeading(runway)
	if !ok {
		return
	}

	speed := m.Wind.Speed
	if m.Wind.Gust != nil {
		speed = *m.Wind.Gust
	}
	wind.MaxPerpendicularSpeed = ptr.To(calculateCrosswind(heading, *m.Wind.Degrees, speed))
}

func decodePressure(m *models.Metar, pressure *models.Pressure) {
	if m.Altimeter == nil {
		return
	}

	var hPa float64
	switch m.Altimeter.Unit {
	case models.AltimeterHPa:
		hPa = m.Altimeter.Value
	case models.AltimeterInHg:
		hPa = m.Altimeter.Value * inHgToHPa
	default:
		return
	}

	pressure.HPa = ptr.To(hPa)
	pressure.MmHg = ptr.To(hPa * hPaToMmHg)
}

// clone keeps the cached report from sharing memory with published snapshots
func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.To(*p)
}
