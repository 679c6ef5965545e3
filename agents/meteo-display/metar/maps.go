package metar

import (
	"fmt"
	"math"
	"strconv"

	"meteo-stack/internal/models"
)

// DisplayPhenomenon is the display's weather condition code, ordered by severity
type DisplayPhenomenon int

const (
	DisplayNo DisplayPhenomenon = iota
	DisplayFog
	DisplayHaze
	DisplayHail
	DisplayRain
	DisplaySnow
	DisplayDustStorm
	DisplaySnowStorm
	DisplayDistantThunderstorm
)

// cloudQuantityIndex maps sky coverage to the display's cloud layer index
var cloudQuantityIndex = map[models.CloudQuantity]int{
	models.CloudSkyClear:           0,
	models.CloudNoSignificantCloud: 0,
	models.CloudFew:                2,
	models.CloudScattered:          4,
	models.CloudBroken:             6,
	models.CloudOvercast:           10,
}

// phenomenonSeverity maps each phenomenon to the display's condition code
var phenomenonSeverity = map[models.Phenomenon]DisplayPhenomenon{
	models.PhenomenonRain:                 DisplayRain,
	models.PhenomenonDrizzle:              DisplayRain,
	models.PhenomenonSpray:                DisplayRain,
	models.PhenomenonSnow:                 DisplaySnow,
	models.PhenomenonSnowGrains:           DisplaySnow,
	models.PhenomenonIceCrystals:          DisplaySnow,
	models.PhenomenonIcePellets:           DisplayHail,
	models.PhenomenonHail:                 DisplayHail,
	models.PhenomenonSmallHail:            DisplayHail,
	models.PhenomenonUnknownPrecipitation: DisplayNo,
	models.PhenomenonNoSignificantWeather: DisplayNo,
	models.PhenomenonFog:                  DisplayFog,
	models.PhenomenonMist:                 DisplayFog,
	models.PhenomenonHaze:                 DisplayHaze,
	models.PhenomenonSmoke:                DisplayHaze,
	models.PhenomenonWidespreadDust:       DisplayDustStorm,
	models.PhenomenonSand:                 DisplayDustStorm,
	models.PhenomenonSandWhirls:           DisplayDustStorm,
	models.PhenomenonDuststorm:            DisplayDustStorm,
	models.PhenomenonSandstorm:            DisplayDustStorm,
	models.PhenomenonVolcanicAsh:          DisplayDustStorm,
	models.PhenomenonSquall:               DisplayDistantThunderstorm,
	models.PhenomenonThunderstorm:         DisplayDistantThunderstorm,
	models.PhenomenonFunnelCloud:          DisplayDistantThunderstorm,
}

// CloudQuantityIndex returns the display index for a coverage value
func CloudQuantityIndex(q models.CloudQuantity) (int, bool) {
	index, ok := cloudQuantityIndex[q]
	return index, ok
}

// PhenomenonSeverity returns the display code for a phenomenon. Anything
// missing from the table is shown as a dust storm.
func PhenomenonSeverity(p models.Phenomenon) DisplayPhenomenon {
	if severity, ok := phenomenonSeverity[p]; ok {
		return severity
	}
	return DisplayDustStorm
}

// checkTables reports enumerated values that have no display code
func checkTables() error {
	for _, q := range models.CloudQuantities {
		if _, ok := cloudQuantityIndex[q]; !ok {
			return fmt.Errorf("cloud quantity %s has no display index", q)
		}
	}
	for _, p := range models.Phenomena {
		if _, ok := phenomenonSeverity[p]; !ok {
			return fmt.Errorf("phenomenon %s has no display code", p)
		}
	}
	return nil
}

// runwayHeading turns a runway designator such as "24L" into degrees
func runwayHeading(runway string) (int, bool) {
	if len(runway) < 2 {
		return 0, false
	}
	number, err := strconv.Atoi(runway[:2])
	if err != nil {
		return 0, false
	}
	return number * 10, true
}

// calculateCrosswind returns the wind component perpendicular to the runway,
// in the unit of speed
func calculateCrosswind(heading, direction, speed int) int {
	angle := math.Mod(math.Abs(float64(heading-direction)), 360)
	return int(math.Round(math.Sin(angle*math.Pi/180) * float64(speed)))
}
