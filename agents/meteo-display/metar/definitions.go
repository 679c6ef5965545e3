package metar

import (
	"errors"
	"regexp"
)

var (
	// ErrRetrieval is returned when the raw report could not be downloaded
	ErrRetrieval = errors.New("metar retrieval failed")
	// ErrParse is returned when the raw report is not a METAR
	ErrParse = errors.New("metar parse failed")
)

const (
	inHgToHPa = 33.863889532611
	hPaToMmHg = 0.75006375541921
)

// Token patterns for the body of a report
var (
	stationRegex     = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	timeRegex        = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	windRegex        = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(?:G(\d{2,3}))?(KT|MPS)$`)
	windVarRegex     = regexp.MustCompile(`^\d{3}V\d{3}$`)
	visibilityRegex  = regexp.MustCompile(`^(\d{4}(NDV|[NSEW]{1,2})?|M?\d+(/\d+)?SM|\d/\d+SM|P6SM)$`)
	rvrRegex         = regexp.MustCompile(`^R\d{2}[LCR]?/[PM]?\d{4}(V[PM]?\d{4})?(FT)?[UDN]?$`)
	runwayStateRegex = regexp.MustCompile(`^R(\d{2}[LCR]?)/([0-9/])([1259/])(\d{2}|//)(\d{2}|//)$`)
	runwayClearRegex = regexp.MustCompile(`^R(\d{2}[LCR]?)/CLRD(\d{2}|//)$`)
	cloudRegex       = regexp.MustCompile(`^(SKC|CLR|FEW|SCT|BKN|OVC)(\d{3}|///)?(CB|TCU|///)?$`)
	verticalVisRegex = regexp.MustCompile(`^VV(\d{3}|///)$`)
	weatherRegex     = regexp.MustCompile(`^(-|\+|VC|RE)?(MI|PR|BC|DR|BL|SH|TS|FZ)?((?:DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)*)$`)
	tempRegex        = regexp.MustCompile(`^(M?)(\d{2})/(M?)(\d{2})?$`)
	qnhRegex         = regexp.MustCompile(`^Q(\d{4})$`)
	altimeterRegex   = regexp.MustCompile(`^A(\d{4})$`)
)

// Tokens that end the observation part of a report
var trendMarkers = map[string]bool{
	"RMK":   true,
	"TEMPO": true,
	"BECMG": true,
	"NOSIG": true,
}
