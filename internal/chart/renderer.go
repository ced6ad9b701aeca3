// Package chart renders a Lunar Return wheel as a PNG with nothing but
// the standard image library. No fonts: signs, houses and planets are
// expressed by color, geometry and position, which keeps the renderer
// dependency-free and deterministic.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"astrowheel/internal/domain"
)

const (
	chartSize = 800

	// Ring radii as fractions of the half-size.
	rOuter    = 0.92
	rZodiacIn = 0.75
	rHouseIn  = 0.49
	rPlanet   = 0.61
	rAspect   = 0.46
	rCenter   = 0.15

	// Planets closer than this angular separation get nudged inward.
	collisionRad  = 0.13
	collisionStep = 0.085
)

var (
	colBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colRingEdge   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colSpokeMajor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colSpokeMinor = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	colRetro      = color.RGBA{R: 231, G: 76, B: 60, A: 255}

	elementColors = map[domain.Element]color.RGBA{
		domain.ElementFire:  {R: 231, G: 76, B: 60, A: 255},
		domain.ElementEarth: {R: 46, G: 204, B: 113, A: 255},
		domain.ElementAir:   {R: 243, G: 156, B: 18, A: 255},
		domain.ElementWater: {R: 52, G: 152, B: 219, A: 255},
	}

	planetColors = map[domain.Body]color.RGBA{
		domain.BodySun:     {R: 241, G: 196, B: 15, A: 255},
		domain.BodyMoon:    {R: 189, G: 195, B: 199, A: 255},
		domain.BodyMercury: {R: 155, G: 89, B: 182, A: 255},
		domain.BodyVenus:   {R: 39, G: 174, B: 96, A: 255},
		domain.BodyMars:    {R: 231, G: 76, B: 60, A: 255},
		domain.BodyJupiter: {R: 230, G: 126, B: 34, A: 255},
		domain.BodySaturn:  {R: 149, G: 165, B: 166, A: 255},
		domain.BodyUranus:  {R: 26, G: 188, B: 156, A: 255},
		domain.BodyNeptune: {R: 41, G: 128, B: 185, A: 255},
		domain.BodyPluto:   {R: 142, G: 68, B: 173, A: 255},
	}
)

// aspect is one recognized angular relation between two planets.
type aspect struct {
	angle float64
	orb   float64
	col   color.RGBA
	// dash is the on/off pixel pattern; zero off means solid.
	dashOn, dashOff int
}

var aspects = []aspect{
	{0, 8, color.RGBA{R: 241, G: 196, B: 15, A: 255}, 1, 0},   // conjunction
	{180, 8, color.RGBA{R: 231, G: 76, B: 60, A: 255}, 1, 0},  // opposition
	{120, 7, color.RGBA{R: 46, G: 204, B: 113, A: 255}, 1, 0}, // trine
	{90, 7, color.RGBA{R: 231, G: 76, B: 60, A: 255}, 6, 4},   // square
	{60, 5, color.RGBA{R: 52, G: 152, B: 219, A: 255}, 1, 0},  // sextile
	{150, 3, color.RGBA{R: 155, G: 89, B: 182, A: 255}, 2, 4}, // quincunx
	{30, 2, color.RGBA{R: 189, G: 195, B: 199, A: 255}, 2, 4}, // semi-sextile
}

func aspectBetween(lon1, lon2 float64) *aspect {
	diff := math.Mod(math.Abs(lon1-lon2), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	for i := range aspects {
		if math.Abs(diff-aspects[i].angle) <= aspects[i].orb {
			return &aspects[i]
		}
	}
	return nil
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderWheel draws the wheel for one chart: zodiac ring tinted by
// element and rotated so the ascendant sign starts at the left, house
// spokes, aspect chords, and a dot per planet nudged inward on
// crowding.
func (r *Renderer) RenderWheel(planets []domain.PlanetPosition, points domain.ChartPoints) (*domain.ChartImageData, error) {
	if len(planets) == 0 {
		return nil, fmt.Errorf("need at least one planet to render wheel")
	}
	if !points.Ascendant.Valid() {
		return nil, fmt.Errorf("invalid ascendant sign: %d", points.Ascendant)
	}

	img := image.NewRGBA(image.Rect(0, 0, chartSize, chartSize))
	fillRect(img, img.Bounds(), colBackground)

	ascDeg := float64(points.Ascendant) * 30

	drawZodiacRing(img, ascDeg)
	drawCircle(img, rOuter, colRingEdge)
	drawCircle(img, rZodiacIn, colRingEdge)
	drawCircle(img, rHouseIn, colRingEdge)
	drawCircle(img, rCenter, colRingEdge)
	drawHouseSpokes(img, ascDeg)
	drawAspects(img, planets, ascDeg)
	drawPlanets(img, planets, ascDeg)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &domain.ChartImageData{
		Ref: domain.ChartImageRef{
			MimeType: "image/png",
			Width:    chartSize,
			Height:   chartSize,
		},
		Bytes: buf.Bytes(),
	}, nil
}

// wheelAngle converts an ecliptic longitude into a screen angle so the
// ascendant degree points at nine o'clock and the zodiac runs
// counterclockwise.
func wheelAngle(lonDeg, ascDeg float64) float64 {
	return math.Mod(lonDeg-ascDeg+180+360, 360) * math.Pi / 180
}

// polar maps a fractional radius and wheel angle to pixel coordinates.
// The y axis flips because image rows grow downward.
func polar(rFrac, theta float64) (int, int) {
	half := float64(chartSize) / 2
	x := half + rFrac*half*math.Cos(theta)
	y := half - rFrac*half*math.Sin(theta)
	return int(math.Round(x)), int(math.Round(y))
}

func drawZodiacRing(img *image.RGBA, ascDeg float64) {
	half := float64(chartSize) / 2
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := float64(x) - half
			dy := half - float64(y)
			rFrac := math.Sqrt(dx*dx+dy*dy) / half
			if rFrac < rZodiacIn || rFrac > rOuter {
				continue
			}
			theta := math.Atan2(dy, dx)
			lon := math.Mod(theta*180/math.Pi-180+ascDeg+720, 360)
			sign := domain.SignFromLongitude(lon)
			base := elementColors[domain.SignTraits[sign].Element]
			img.SetRGBA(x, y, tint(base, 0.15))
		}
	}
}

func drawHouseSpokes(img *image.RGBA, ascDeg float64) {
	for i := 0; i < 12; i++ {
		theta := wheelAngle(ascDeg+float64(i)*30, ascDeg)
		x0, y0 := polar(rHouseIn, theta)
		x1, y1 := polar(rZodiacIn, theta)
		// Angular houses (1, 4, 7, 10) get the heavy axis treatment.
		if i%3 == 0 {
			drawThickLine(img, x0, y0, x1, y1, colSpokeMajor)
		} else {
			drawLine(img, x0, y0, x1, y1, colSpokeMinor)
		}
	}
}

func drawAspects(img *image.RGBA, planets []domain.PlanetPosition, ascDeg float64) {
	for i := range planets {
		for j := i + 1; j < len(planets); j++ {
			asp := aspectBetween(planets[i].Longitude, planets[j].Longitude)
			if asp == nil {
				continue
			}
			x0, y0 := polar(rAspect, wheelAngle(planets[i].Longitude, ascDeg))
			x1, y1 := polar(rAspect, wheelAngle(planets[j].Longitude, ascDeg))
			drawDashedLine(img, x0, y0, x1, y1, asp.col, asp.dashOn, asp.dashOff)
		}
	}
}

func drawPlanets(img *image.RGBA, planets []domain.PlanetPosition, ascDeg float64) {
	type placement struct{ theta, r float64 }
	placed := make([]placement, 0, len(planets))

	for _, p := range planets {
		theta := wheelAngle(p.Longitude, ascDeg)

		r := rPlanet
		for _, prev := range placed {
			diff := math.Abs(theta - prev.theta)
			if diff > math.Pi {
				diff = 2*math.Pi - diff
			}
			if diff < collisionRad {
				r -= collisionStep
			}
		}
		if r < rHouseIn+0.03 {
			r = rHouseIn + 0.03
		}
		placed = append(placed, placement{theta: theta, r: r})

		col, ok := planetColors[p.Body]
		if !ok {
			col = colSpokeMajor
		}

		// Tick on the ring edge plus a guide line to the marker.
		tx, ty := polar(rZodiacIn-0.015, theta)
		px, py := polar(r, theta)
		drawLine(img, tx, ty, px, py, tint(col, 0.4))
		fillDisc(img, tx, ty, 3, col)

		fillDisc(img, px, py, 9, colBackground)
		fillDisc(img, px, py, 7, col)

		if p.Retrograde {
			rx, ry := polar(r-0.055, theta)
			fillDisc(img, rx, ry, 3, colRetro)
		}
	}
}

func tint(col color.RGBA, factor float64) color.RGBA {
	blend := func(c uint8) uint8 {
		return uint8(255 - factor*(255-float64(c)))
	}
	return color.RGBA{R: blend(col.R), G: blend(col.G), B: blend(col.B), A: 255}
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func fillDisc(img *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius && image.Pt(x, y).In(img.Bounds()) {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// drawCircle samples the circumference densely enough that adjacent
// samples land on neighboring pixels.
func drawCircle(img *image.RGBA, rFrac float64, col color.RGBA) {
	steps := int(2 * math.Pi * rFrac * float64(chartSize) / 2)
	if steps < 64 {
		steps = 64
	}
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x, y := polar(rFrac, theta)
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	drawDashedLine(img, x0, y0, x1, y1, col, 1, 0)
}

func drawThickLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	drawLine(img, x0, y0, x1, y1, col)
	drawLine(img, x0+1, y0, x1+1, y1, col)
	drawLine(img, x0, y0+1, x1, y1+1, col)
}

// drawDashedLine is Bresenham with an on/off pixel pattern. dashOff 0
// draws solid.
func drawDashedLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA, dashOn, dashOff int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	period := dashOn + dashOff
	step := 0
	for {
		if (period == dashOn || step%period < dashOn) && image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		step++
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
