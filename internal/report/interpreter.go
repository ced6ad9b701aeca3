// Package report turns computed chart state into human-readable
// Telegram HTML messages and an LLM prompt, backed by an embedded
// interpretation dataset.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"astrowheel/internal/domain"
)

//go:embed interpretations.json
var interpretationsJSON []byte

// Telegram rejects messages over 4096 characters; we trim well before
// that so the HTML markup never gets cut mid-tag.
const (
	messageSoftLimit = 4000
	sectionLimit     = 800
	dynamicsLimit    = 1500
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

const missingText = "No description available."

type dataset struct {
	ElementsSign     map[string]string `json:"elements_sign"`
	CrossesSign      map[string]string `json:"crosses_sign"`
	Signs            map[string]string `json:"signs"`
	ElementsHouse    map[string]string `json:"elements_house"`
	CrossesHouse     map[string]string `json:"crosses_house"`
	Houses           map[string]string `json:"houses"`
	SignDescriptions map[string]string `json:"sign_descriptions"`
}

// Interpreter renders reports from the embedded dataset. Construct
// once at startup; all methods are read-only and safe for concurrent
// use.
type Interpreter struct {
	data dataset
}

func NewInterpreter() (*Interpreter, error) {
	var d dataset
	if err := json.Unmarshal(interpretationsJSON, &d); err != nil {
		return nil, fmt.Errorf("parse interpretation dataset: %w", err)
	}
	if len(d.Signs) != 12 || len(d.Houses) != 12 || len(d.SignDescriptions) != 12 {
		return nil, fmt.Errorf("interpretation dataset incomplete: %d signs, %d houses, %d descriptions",
			len(d.Signs), len(d.Houses), len(d.SignDescriptions))
	}
	return &Interpreter{data: d}, nil
}

func lookup(m map[string]string, key string) string {
	if v, ok := m[key]; ok && v != "" {
		return sanitize(v)
	}
	return missingText
}

// sanitize escapes the characters Telegram HTML mode treats as markup.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return strings.TrimSpace(text)
}

// truncate caps s at n bytes without cutting a rune in half.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func syntheticSignName(f domain.Forecast) string {
	if f.SyntheticSign == nil {
		return "Undefined"
	}
	return f.SyntheticSign.String()
}

func syntheticHouseName(f domain.Forecast) string {
	if f.SyntheticHouse == nil {
		return "Undefined"
	}
	return fmt.Sprintf("House %d", *f.SyntheticHouse)
}

// ForecastMessage builds the main monthly forecast in Telegram HTML.
// The inner section describes the dominant sign blend ("how I want it
// to go"), the outer one the dominant house blend ("how it will
// actually go").
func (i *Interpreter) ForecastMessage(f domain.Forecast) string {
	innerText := missingText
	if f.SyntheticSign != nil {
		innerText = lookup(i.data.Signs, f.SyntheticSign.String())
	}
	outerText := missingText
	if f.SyntheticHouse != nil {
		outerText = lookup(i.data.Houses, fmt.Sprintf("%d", *f.SyntheticHouse))
	}

	build := func(inner, outer string) string {
		var b strings.Builder
		b.WriteString("🌙 <b>Lunar Return forecast for the month</b>\n")
		b.WriteString(divider + "\n\n")
		b.WriteString("🌀 <b>Overall energy of the month</b>\n")
		fmt.Fprintf(&b, "Leading mood: <b>%s + %s</b> (%s)\n", f.SignDominant.Element, f.SignDominant.Modality, syntheticSignName(f))
		fmt.Fprintf(&b, "Leading arena: <b>%s + %s</b> (%s)\n\n", f.HouseDominant.Element, f.HouseDominant.Modality, syntheticHouseName(f))
		b.WriteString(divider + "\n")
		b.WriteString("🧱 <b>\"How I want it\" (inner state)</b>\n\n")
		b.WriteString(inner + "\n\n")
		b.WriteString(divider + "\n")
		b.WriteString("🏠 <b>\"How it will actually be\" (outer circumstances)</b>\n\n")
		b.WriteString(outer + "\n")
		return b.String()
	}

	msg := build(innerText, outerText)
	if len(msg) > messageSoftLimit {
		msg = build(truncate(innerText, sectionLimit), truncate(outerText, sectionLimit))
	}
	return msg
}

// DynamicsMessage describes the arc of the cycle: the ascendant sign
// at its start and the midheaven sign at its end.
func (i *Interpreter) DynamicsMessage(startAscendant, endMidheaven domain.Sign) string {
	var b strings.Builder
	b.WriteString("📅 <b>Dynamics of the month</b>\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "🏁 <b>Start of the month: Ascendant in %s</b>\n\n", startAscendant)
	b.WriteString(truncate(lookup(i.data.SignDescriptions, startAscendant.String()), dynamicsLimit) + "\n\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "🎯 <b>End of the month: Midheaven in %s</b>\n\n", endMidheaven)
	b.WriteString(truncate(lookup(i.data.SignDescriptions, endMidheaven.String()), dynamicsLimit) + "\n")
	return b.String()
}

// Prompt assembles a structured document a language model can turn
// into a literary monthly forecast. All interpretation fragments for
// the chart's dominants are inlined so the model needs no other
// context.
func (i *Interpreter) Prompt(f domain.Forecast) string {
	var b strings.Builder
	b.WriteString("You are an experienced astrologer writing a warm, concrete monthly forecast ")
	b.WriteString("based on a Lunar Return chart. Use the source fragments below, keep their meaning, ")
	b.WriteString("and write 4-6 short paragraphs of flowing prose. Do not mention charts, houses or ")
	b.WriteString("astrological jargon directly.\n\n")

	fmt.Fprintf(&b, "## Inner state (dominant sign blend: %s + %s, expressed as %s)\n\n",
		f.SignDominant.Element, f.SignDominant.Modality, syntheticSignName(f))
	fmt.Fprintf(&b, "Element: %s\n\n", lookup(i.data.ElementsSign, string(f.SignDominant.Element)))
	fmt.Fprintf(&b, "Modality: %s\n\n", lookup(i.data.CrossesSign, string(f.SignDominant.Modality)))
	if f.SyntheticSign != nil {
		fmt.Fprintf(&b, "Blend: %s\n\n", lookup(i.data.Signs, f.SyntheticSign.String()))
	}

	fmt.Fprintf(&b, "## Outer circumstances (dominant house blend: %s + %s, expressed as %s)\n\n",
		f.HouseDominant.Element, f.HouseDominant.Modality, syntheticHouseName(f))
	fmt.Fprintf(&b, "Element: %s\n\n", lookup(i.data.ElementsHouse, string(f.HouseDominant.Element)))
	fmt.Fprintf(&b, "Modality: %s\n\n", lookup(i.data.CrossesHouse, string(f.HouseDominant.Modality)))
	if f.SyntheticHouse != nil {
		fmt.Fprintf(&b, "Blend: %s\n\n", lookup(i.data.Houses, fmt.Sprintf("%d", *f.SyntheticHouse)))
	}

	fmt.Fprintf(&b, "## Cycle\n\nThe cycle runs from %s to %s.\n",
		f.Cycle.Start.Format("2 January 2006"), f.Cycle.End.Format("2 January 2006"))
	if f.Cycle.Degraded {
		b.WriteString("The cycle boundaries are approximate; keep timing statements soft.\n")
	}
	return b.String()
}

// CalculationMessage lists the raw chart data: every planet with its
// sign, house and motion, plus the chart angles and score tables.
func (i *Interpreter) CalculationMessage(f domain.Forecast) string {
	var b strings.Builder
	b.WriteString("🔭 <b>Calculation data</b>\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "Cycle: <b>%s</b> — <b>%s</b>\n",
		f.Cycle.Start.Format("02.01.2006 15:04"), f.Cycle.End.Format("02.01.2006 15:04"))
	if f.Cycle.Degraded {
		b.WriteString("⚠️ Exact return instant not found; using the current moment. Precision is reduced.\n")
	}
	fmt.Fprintf(&b, "Ascendant: <b>%s</b>, Midheaven: <b>%s</b>\n\n", f.Points.Ascendant, f.Points.Midheaven)

	for _, p := range f.Planets {
		retro := ""
		if p.Retrograde {
			retro = " ℞"
		}
		fmt.Fprintf(&b, "%s %s%s — %s, house %d (%.1f°)\n",
			p.Body.Symbol(), p.Body, retro, p.Sign, p.House, p.Longitude)
	}

	b.WriteString("\n<b>Sign scores</b>: ")
	writeScores(&b, f.SignScores)
	b.WriteString("\n<b>House scores</b>: ")
	writeScores(&b, f.HouseScores)
	b.WriteString("\n")
	return b.String()
}

func writeScores(b *strings.Builder, t domain.ScoreTable) {
	parts := make([]string, 0, len(domain.Elements)+len(domain.Modalities))
	for _, el := range domain.Elements {
		if v := t.Elements[el]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", el, v))
		}
	}
	for _, mod := range domain.Modalities {
		if v := t.Modalities[mod]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", mod, v))
		}
	}
	b.WriteString(strings.Join(parts, ", "))
}
