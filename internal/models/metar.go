package models

// CloudQuantity is the sky coverage of a single cloud layer
type CloudQuantity string

const (
	CloudSkyClear           CloudQuantity = "SKC"
	CloudFew                CloudQuantity = "FEW"
	CloudScattered          CloudQuantity = "SCT"
	CloudBroken             CloudQuantity = "BKN"
	CloudOvercast           CloudQuantity = "OVC"
	CloudNoSignificantCloud CloudQuantity = "NSC"
)

// CloudQuantities lists every known coverage value
var CloudQuantities = []CloudQuantity{
	CloudSkyClear, CloudFew, CloudScattered, CloudBroken, CloudOvercast, CloudNoSignificantCloud,
}

// Intensity qualifies a weather condition group
type Intensity string

const (
	IntensityModerate Intensity = ""
	IntensityLight    Intensity = "-"
	IntensityHeavy    Intensity = "+"
	IntensityVicinity Intensity = "VC"
	IntensityRecent   Intensity = "RE"
)

// Descriptive is the descriptor part of a weather condition group
type Descriptive string

const (
	DescriptiveNone         Descriptive = ""
	DescriptiveShallow      Descriptive = "MI"
	DescriptivePartial      Descriptive = "PR"
	DescriptivePatches      Descriptive = "BC"
	DescriptiveLowDrifting  Descriptive = "DR"
	DescriptiveBlowing      Descriptive = "BL"
	DescriptiveShowers      Descriptive = "SH"
	DescriptiveThunderstorm Descriptive = "TS"
	DescriptiveFreezing     Descriptive = "FZ"
)

// Phenomenon is a single observed weather phenomenon
type Phenomenon string

const (
	PhenomenonDrizzle              Phenomenon = "DZ"
	PhenomenonRain                 Phenomenon = "RA"
	PhenomenonSnow                 Phenomenon = "SN"
	PhenomenonSnowGrains           Phenomenon = "SG"
	PhenomenonIceCrystals          Phenomenon = "IC"
	PhenomenonIcePellets           Phenomenon = "PL"
	PhenomenonHail                 Phenomenon = "GR"
	PhenomenonSmallHail            Phenomenon = "GS"
	PhenomenonUnknownPrecipitation Phenomenon = "UP"
	PhenomenonMist                 Phenomenon = "BR"
	PhenomenonFog                  Phenomenon = "FG"
	PhenomenonSmoke                Phenomenon = "FU"
	PhenomenonVolcanicAsh          Phenomenon = "VA"
	PhenomenonWidespreadDust       Phenomenon = "DU"
	PhenomenonSand                 Phenomenon = "SA"
	PhenomenonHaze                 Phenomenon = "HZ"
	PhenomenonSpray                Phenomenon = "PY"
	PhenomenonSandWhirls           Phenomenon = "PO"
	PhenomenonSquall               Phenomenon = "SQ"
	PhenomenonFunnelCloud          Phenomenon = "FC"
	PhenomenonSandstorm            Phenomenon = "SS"
	PhenomenonDuststorm            Phenomenon = "DS"
	PhenomenonThunderstorm         Phenomenon = "TS"
	PhenomenonNoSignificantWeather Phenomenon = "NSW"
)

// Phenomena lists every known phenomenon
var Phenomena = []Phenomenon{
	PhenomenonDrizzle, PhenomenonRain, PhenomenonSnow, PhenomenonSnowGrains, PhenomenonIceCrystals,
	PhenomenonIcePellets, PhenomenonHail, PhenomenonSmallHail, PhenomenonUnknownPrecipitation,
	PhenomenonMist, PhenomenonFog, PhenomenonSmoke, PhenomenonVolcanicAsh, PhenomenonWidespreadDust,
	PhenomenonSand, PhenomenonHaze, PhenomenonSpray, PhenomenonSandWhirls, PhenomenonSquall,
	PhenomenonFunnelCloud, PhenomenonSandstorm, PhenomenonDuststorm, PhenomenonThunderstorm,
	PhenomenonNoSignificantWeather,
}

// DepositType is the ICAO runway deposit code (first digit of a runway state group)
type DepositType string

const (
	DepositNotReported     DepositType = "/"
	DepositClearDry        DepositType = "0"
	DepositDamp            DepositType = "1"
	DepositWetWaterPatches DepositType = "2"
	DepositRimeFrost       DepositType = "3"
	DepositDrySnow         DepositType = "4"
	DepositWetSnow         DepositType = "5"
	DepositSlush           DepositType = "6"
	DepositIce             DepositType = "7"
	DepositCompactedSnow   DepositType = "8"
	DepositFrozenRidges    DepositType = "9"
)

// AltimeterUnit is the unit an altimeter setting was reported in
type AltimeterUnit string

const (
	AltimeterHPa  AltimeterUnit = "hPa"
	AltimeterInHg AltimeterUnit = "inHg"
)

// Wind represents the surface wind group
type Wind struct {
	Degrees *int   // nil when the direction is variable (VRB)
	Speed   int
	Gust    *int
	Unit    string // "KT" or "MPS"
}

// CloudLayer represents one reported cloud layer
type CloudLayer struct {
	Quantity CloudQuantity
	Height   *int   // feet above ground, nil when not reported
	Type     string // CB, TCU or empty
}

// WeatherCondition represents one present-weather group, e.g. "-TSRA"
type WeatherCondition struct {
	Intensity   Intensity
	Descriptive Descriptive
	Phenomena   []Phenomenon
}

// RunwayDeposit represents a runway state group, e.g. "R24L/790155"
type RunwayDeposit struct {
	Runway          string
	DepositType     DepositType
	Coverage        string
	Thickness       string
	BrakingCapacity string
	Cleared         bool
}

// Altimeter represents the QNH group
type Altimeter struct {
	Value float64
	Unit  AltimeterUnit
}

// Metar is a parsed METAR observation
type Metar struct {
	Raw     string
	Station string

	Day    *int
	Hour   *int
	Minute *int

	Wind              *Wind
	Temperature       *int
	DewPoint          *int
	Altimeter         *Altimeter
	Clouds            []CloudLayer
	WeatherConditions []WeatherCondition
	RunwayDeposits    []RunwayDeposit
	CAVOK             bool

	Unhandled []string
}
