package metar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
)

// Parse decodes the first report found in raw. Only the observation part is
// read; trend groups and remarks are ignored. Tokens that are recognised
// but not needed by the display (visibility, RVR, wind variation) are
// skipped, anything else ends up in Unhandled.
func Parse(raw string) (*models.Metar, error) {
	line := firstLine(raw)
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty report", ErrParse)
	}

	m := &models.Metar{Raw: line}

	i := 0
	for i < len(parts) && (parts[i] == "METAR" || parts[i] == "SPECI" || parts[i] == "COR") {
		i++
	}
	if i >= len(parts) || !stationRegex.MatchString(parts[i]) {
		return nil, fmt.Errorf("%w: missing station identifier in %q", ErrParse, line)
	}
	m.Station = parts[i]
	i++

	if i < len(parts) {
		if matches := timeRegex.FindStringSubmatch(parts[i]); matches != nil {
			day, _ := strconv.Atoi(matches[1])
			hour, _ := strconv.Atoi(matches[2])
			minute, _ := strconv.Atoi(matches[3])
			m.Day, m.Hour, m.Minute = &day, &hour, &minute
			i++
		}
	}

	for ; i < len(parts); i++ {
		part := parts[i]
		if trendMarkers[part] {
			break
		}
		parseToken(m, part)
	}

	return m, nil
}

func firstLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return strings.TrimSuffix(line, "=")
		}
	}
	return ""
}

func parseToken(m *models.Metar, part string) {
	switch part {
	case "AUTO", "COR", "NIL":
		return
	case "NCD":
		m.Clouds = append(m.Clouds, models.CloudLayer{Quantity: models.CloudSkyClear})
		return
	case "CAVOK":
		m.CAVOK = true
		return
	case "NSC":
		m.Clouds = append(m.Clouds, models.CloudLayer{Quantity: models.CloudNoSignificantCloud})
		return
	case "NSW":
		m.WeatherConditions = append(m.WeatherConditions, models.WeatherCondition{
			Phenomena: []models.Phenomenon{models.PhenomenonNoSignificantWeather},
		})
		return
	}

	if wind, ok := parseWind(part); ok {
		m.Wind = wind
		return
	}

	if windVarRegex.MatchString(part) || visibilityRegex.MatchString(part) || verticalVisRegex.MatchString(part) {
		return
	}

	if deposit, ok := parseRunwayDeposit(part); ok {
		m.RunwayDeposits = append(m.RunwayDeposits, deposit)
		return
	}

	if rvrRegex.MatchString(part) {
		return
	}

	if cloud, ok := parseCloud(part); ok {
		m.Clouds = append(m.Clouds, cloud)
		return
	}

	if condition, ok := parseWeatherCondition(part); ok {
		m.WeatherConditions = append(m.WeatherConditions, condition)
		return
	}

	if matches := tempRegex.FindStringSubmatch(part); matches != nil {
		m.Temperature = ptr.To(signedInt(matches[1], matches[2]))
		if matches[4] != "" {
			m.DewPoint = ptr.To(signedInt(matches[3], matches[4]))
		}
		return
	}

	if matches := qnhRegex.FindStringSubmatch(part); matches != nil {
		value, _ := strconv.Atoi(matches[1])
		m.Altimeter = &models.Altimeter{Value: float64(value), Unit: models.AltimeterHPa}
		return
	}

	if matches := altimeterRegex.FindStringSubmatch(part); matches != nil {
		value, _ := strconv.Atoi(matches[1])
		m.Altimeter = &models.Altimeter{Value: float64(value) / 100.0, Unit: models.AltimeterInHg}
		return
	}

	m.Unhandled = append(m.Unhandled, part)
}

// parseWind parses "DDDSS[GGG]KT", "VRBSSKT" and the MPS variants
func parseWind(part string) (*models.Wind, bool) {
	matches := windRegex.FindStringSubmatch(part)
	if matches == nil {
		return nil, false
	}

	wind := &models.Wind{Unit: matches[4]}
	if matches[1] != "VRB" {
		degrees, _ := strconv.Atoi(matches[1])
		wind.Degrees = &degrees
	}
	wind.Speed, _ = strconv.Atoi(matches[2])
	if matches[3] != "" {
		gust, _ := strconv.Atoi(matches[3])
		wind.Gust = &gust
	}

	return wind, true
}

// parseCloud parses "CCCHHH[TTT]". Heights are converted to feet.
func parseCloud(part string) (models.CloudLayer, bool) {
	matches := cloudRegex.FindStringSubmatch(part)
	if matches == nil {
		return models.CloudLayer{}, false
	}

	quantity := models.CloudQuantity(matches[1])
	if matches[1] == "CLR" {
		quantity = models.CloudSkyClear
	}

	cloud := models.CloudLayer{Quantity: quantity}
	if matches[3] != "///" {
		cloud.Type = matches[3]
	}
	if matches[2] != "" && matches[2] != "///" {
		height, _ := strconv.Atoi(matches[2])
		cloud.Height = ptr.To(height * 100)
	}

	return cloud, true
}

// parseRunwayDeposit parses the runway state group "RDD/ECeeBB" and its
// cleared form "RDD/CLRDBB"
func parseRunwayDeposit(part string) (models.RunwayDeposit, bool) {
	if matches := runwayStateRegex.FindStringSubmatch(part); matches != nil {
		return models.RunwayDeposit{
			Runway:          matches[1],
			DepositType:     models.DepositType(matches[2]),
			Coverage:        matches[3],
			Thickness:       matches[4],
			BrakingCapacity: matches[5],
		}, true
	}

	if matches := runwayClearRegex.FindStringSubmatch(part); matches != nil {
		return models.RunwayDeposit{
			Runway:          matches[1],
			DepositType:     models.DepositClearDry,
			BrakingCapacity: matches[2],
			Cleared:         true,
		}, true
	}

	return models.RunwayDeposit{}, false
}

func parseWeatherCondition(part string) (models.WeatherCondition, bool) {
	matches := weatherRegex.FindStringSubmatch(part)
	if matches == nil || (matches[2] == "" && matches[3] == "") {
		return models.WeatherCondition{}, false
	}

	condition := models.WeatherCondition{
		Intensity:   models.Intensity(matches[1]),
		Descriptive: models.Descriptive(matches[2]),
	}
	for j := 0; j+2 <= len(matches[3]); j += 2 {
		condition.Phenomena = append(condition.Phenomena, models.Phenomenon(matches[3][j:j+2]))
	}

	// A bare "TS" reports the thunderstorm itself rather than qualifying a phenomenon
	if condition.Descriptive == models.DescriptiveThunderstorm && len(condition.Phenomena) == 0 {
		condition.Phenomena = []models.Phenomenon{models.PhenomenonThunderstorm}
	}

	return condition, true
}

func signedInt(sign, digits string) int {
	value, _ := strconv.Atoi(digits)
	if sign == "M" {
		return -value
	}
	return value
}

// ObservedAt resolves the day/hour/minute of a report against now. The
// report carries no month, so a day later than today belongs to the
// previous month. ok is false when any of the three is missing.
func ObservedAt(m *models.Metar, now time.Time) (time.Time, bool) {
	if m == nil || m.Day == nil || m.Hour == nil || m.Minute == nil {
		return time.Time{}, false
	}

	now = now.UTC()
	observed := time.Date(now.Year(), now.Month(), *m.Day, *m.Hour, *m.Minute, 0, 0, time.UTC)
	if *m.Day > now.Day() {
		observed = time.Date(now.Year(), now.Month()-1, *m.Day, *m.Hour, *m.Minute, 0, 0, time.UTC)
	}

	return observed, true
}
