package domain

import "time"

type Element string

const (
	ElementFire  Element = "Fire"
	ElementEarth Element = "Earth"
	ElementAir   Element = "Air"
	ElementWater Element = "Water"
)

type Modality string

const (
	ModalityCardinal Modality = "Cardinal"
	ModalityFixed    Modality = "Fixed"
	ModalityMutable  Modality = "Mutable"
)

// Elements and Modalities fix the enumeration order used for
// deterministic dominant tie-breaking.
var (
	Elements   = []Element{ElementFire, ElementEarth, ElementAir, ElementWater}
	Modalities = []Modality{ModalityCardinal, ModalityFixed, ModalityMutable}
)

// Sign is a zodiac sign index, 0 (Aries) through 11 (Pisces).
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signSymbols = [12]string{"♈", "♉", "♊", "♋", "♌", "♍", "♎", "♏", "♐", "♑", "♒", "♓"}

func (s Sign) Valid() bool { return s >= Aries && s <= Pisces }

func (s Sign) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return signNames[s]
}

func (s Sign) Symbol() string {
	if !s.Valid() {
		return "?"
	}
	return signSymbols[s]
}

// SignFromLongitude maps a normalized ecliptic longitude to its sign
// by equal 30-degree segments.
func SignFromLongitude(lonDeg float64) Sign {
	idx := int(lonDeg/30) % 12
	if idx < 0 {
		idx += 12
	}
	return Sign(idx)
}

// House is a chart house number, 1 through 12.
type House int

func (h House) Valid() bool { return h >= 1 && h <= 12 }

type Traits struct {
	Element  Element
	Modality Modality
}

// SignTraits is the fixed sign taxonomy: 4 elements by 3 modalities,
// each combination appearing exactly once.
var SignTraits = [12]Traits{
	Aries:       {ElementFire, ModalityCardinal},
	Taurus:      {ElementEarth, ModalityFixed},
	Gemini:      {ElementAir, ModalityMutable},
	Cancer:      {ElementWater, ModalityCardinal},
	Leo:         {ElementFire, ModalityFixed},
	Virgo:       {ElementEarth, ModalityMutable},
	Libra:       {ElementAir, ModalityCardinal},
	Scorpio:     {ElementWater, ModalityFixed},
	Sagittarius: {ElementFire, ModalityMutable},
	Capricorn:   {ElementEarth, ModalityCardinal},
	Aquarius:    {ElementAir, ModalityFixed},
	Pisces:      {ElementWater, ModalityMutable},
}

// HouseTraits assigns houses the same element/modality taxonomy in a
// cycle of its own: houses 1,5,9 are Fire, 2,6,10 Earth, 3,7,11 Air,
// 4,8,12 Water; 1,4,7,10 Cardinal, 2,5,8,11 Fixed, 3,6,9,12 Mutable.
// Independent of whichever sign occupies the house.
var HouseTraits = map[House]Traits{
	1:  {ElementFire, ModalityCardinal},
	2:  {ElementEarth, ModalityFixed},
	3:  {ElementAir, ModalityMutable},
	4:  {ElementWater, ModalityCardinal},
	5:  {ElementFire, ModalityFixed},
	6:  {ElementEarth, ModalityMutable},
	7:  {ElementAir, ModalityCardinal},
	8:  {ElementWater, ModalityFixed},
	9:  {ElementFire, ModalityMutable},
	10: {ElementEarth, ModalityCardinal},
	11: {ElementAir, ModalityFixed},
	12: {ElementWater, ModalityMutable},
}

// Body names a celestial body in the fixed chart list.
type Body string

const (
	BodySun     Body = "Sun"
	BodyMoon    Body = "Moon"
	BodyMercury Body = "Mercury"
	BodyVenus   Body = "Venus"
	BodyMars    Body = "Mars"
	BodyJupiter Body = "Jupiter"
	BodySaturn  Body = "Saturn"
	BodyUranus  Body = "Uranus"
	BodyNeptune Body = "Neptune"
	BodyPluto   Body = "Pluto"
)

// ChartBodies is the fixed, ordered body list used for snapshots.
var ChartBodies = []Body{
	BodySun, BodyMoon, BodyMercury, BodyVenus, BodyMars,
	BodyJupiter, BodySaturn, BodyUranus, BodyNeptune, BodyPluto,
}

// BodyWeights are the scoring weights. Bodies outside this table
// contribute nothing and are skipped silently.
var BodyWeights = map[Body]int{
	BodySun:     5,
	BodyMoon:    5,
	BodyMercury: 3,
	BodyVenus:   3,
	BodyMars:    3,
	BodyJupiter: 2,
	BodySaturn:  2,
	BodyUranus:  1,
	BodyNeptune: 1,
	BodyPluto:   1,
}

var bodySymbols = map[Body]string{
	BodySun: "☉", BodyMoon: "☽", BodyMercury: "☿", BodyVenus: "♀",
	BodyMars: "♂", BodyJupiter: "♃", BodySaturn: "♄",
	BodyUranus: "♅", BodyNeptune: "♆", BodyPluto: "♇",
}

func (b Body) Symbol() string {
	if s, ok := bodySymbols[b]; ok {
		return s
	}
	return string(b)[:1]
}

// PlanetPosition is one body's state at a chart instant. Value object,
// immutable once computed.
type PlanetPosition struct {
	Body       Body    `json:"body"`
	Sign       Sign    `json:"sign"`
	House      House   `json:"house"`
	Longitude  float64 `json:"longitude_deg"`
	Retrograde bool    `json:"retrograde"`
}

// ChartPoints carries the chart angles resolved to signs.
type ChartPoints struct {
	Ascendant Sign `json:"ascendant"`
	Midheaven Sign `json:"midheaven"`
}

// ScoreTable accumulates weighted element and modality scores.
type ScoreTable struct {
	Elements   map[Element]int  `json:"elements"`
	Modalities map[Modality]int `json:"modalities"`
}

func NewScoreTable() ScoreTable {
	return ScoreTable{
		Elements:   make(map[Element]int, len(Elements)),
		Modalities: make(map[Modality]int, len(Modalities)),
	}
}

// Dominant is the argmax element/modality pair of a score table. The
// zero value means undefined (empty table).
type Dominant struct {
	Element  Element  `json:"element"`
	Modality Modality `json:"modality"`
}

func (d Dominant) Defined() bool { return d.Element != "" && d.Modality != "" }

// GeoPlace is a resolved location, as produced by the geocoder.
type GeoPlace struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Timezone       string  `json:"timezone"`
	UTCOffsetHours float64 `json:"utc_offset_hours"`
	DisplayName    string  `json:"display_name"`
}

// BirthData is the caller-supplied natal input. The civil birth moment
// is interpreted in the birth place's UTC offset.
type BirthData struct {
	Name   string
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Place  GeoPlace
}

// NatalUTC converts the civil birth moment to UTC using the place's
// historical offset.
func (b BirthData) NatalUTC() time.Time {
	civil := time.Date(b.Year, b.Month, b.Day, b.Hour, b.Minute, 0, 0, time.UTC)
	return civil.Add(-time.Duration(b.Place.UTCOffsetHours * float64(time.Hour)))
}

// LunarReturnCycle bounds one return cycle. Degraded is set when a
// search window was exhausted and a heuristic fallback instant was
// substituted.
type LunarReturnCycle struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Degraded bool      `json:"degraded"`
}

// Forecast is the full derived chart state for one request. All fields
// are computed fresh per request; nothing outlives the response.
type Forecast struct {
	Cycle          LunarReturnCycle `json:"cycle"`
	Planets        []PlanetPosition `json:"planets"`
	Points         ChartPoints      `json:"points"`
	EndPoints      ChartPoints      `json:"end_points"`
	SignScores     ScoreTable       `json:"sign_scores"`
	HouseScores    ScoreTable       `json:"house_scores"`
	SignDominant   Dominant         `json:"sign_dominant"`
	HouseDominant  Dominant         `json:"house_dominant"`
	SyntheticSign  *Sign            `json:"synthetic_sign,omitempty"`
	SyntheticHouse *House           `json:"synthetic_house,omitempty"`
	ChartKey       string           `json:"chart_key,omitempty"`
}

// ChartImageRef describes a stored rendered wheel image.
type ChartImageRef struct {
	ImageID   int64     `json:"image_id"`
	ChartKey  string    `json:"chart_key"`
	MimeType  string    `json:"mime_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChartImageData struct {
	Ref   ChartImageRef
	Bytes []byte
}
