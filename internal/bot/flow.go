// Package bot runs the Telegram front end: a short registration
// conversation (name, birth date, birth time, birth city) followed by
// the multi-message forecast result. Nothing a user types is stored
// beyond their in-memory session.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"astrowheel/internal/domain"
	"astrowheel/internal/geocoder"
)

type ForecastProvider interface {
	ResolveCity(ctx context.Context, city string) (domain.GeoPlace, error)
	Compute(ctx context.Context, birth domain.BirthData) (domain.Forecast, *domain.ChartImageData, error)
}

type ReportBuilder interface {
	ForecastMessage(f domain.Forecast) string
	DynamicsMessage(startAscendant, endMidheaven domain.Sign) string
	CalculationMessage(f domain.Forecast) string
	Prompt(f domain.Forecast) string
}

type PromptAdvisor interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitName
	stateAwaitBirthDate
	stateAwaitBirthTime
	stateAwaitBirthCity
)

type session struct {
	state     sessionState
	name      string
	birthDate time.Time
	birthTime time.Time
}

// outbound is one message the flow wants sent back to the chat.
type outbound struct {
	text     string
	photo    []byte
	document []byte
	filename string
}

func textOut(format string, args ...any) outbound {
	return outbound{text: fmt.Sprintf(format, args...)}
}

// flow holds the per-chat conversation state. Sessions live only in
// memory and die with the process.
type flow struct {
	mu        sync.Mutex
	sessions  map[int64]*session
	forecasts ForecastProvider
	reports   ReportBuilder
	advisor   PromptAdvisor
}

func newFlow(forecasts ForecastProvider, reports ReportBuilder, advisor PromptAdvisor) *flow {
	return &flow{
		sessions:  make(map[int64]*session),
		forecasts: forecasts,
		reports:   reports,
		advisor:   advisor,
	}
}

func (f *flow) session(chatID int64) *session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[chatID]
	if !ok {
		s = &session{}
		f.sessions[chatID] = s
	}
	return s
}

func (f *flow) reset(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, chatID)
}

// begin starts a fresh registration conversation.
func (f *flow) begin(chatID int64) outbound {
	f.reset(chatID)
	f.session(chatID).state = stateAwaitName
	return textOut("What's your name?")
}

// handleText advances the conversation by one user message and returns
// everything to send in reply. Returns nil when no conversation is
// active for the chat.
func (f *flow) handleText(ctx context.Context, chatID int64, text string) []outbound {
	s := f.session(chatID)
	text = strings.TrimSpace(text)

	switch s.state {
	case stateAwaitName:
		name := escapeName(text)
		if name == "" {
			return []outbound{textOut("Your name cannot be empty. Please enter your name:")}
		}
		s.name = name
		s.state = stateAwaitBirthDate
		return []outbound{textOut("Enter your birth date as <b>DD.MM.YYYY</b>\n(for example: 15.01.1990)")}

	case stateAwaitBirthDate:
		d, err := time.Parse("02.01.2006", text)
		if err != nil {
			return []outbound{textOut("Invalid date format. Use DD.MM.YYYY (for example: 15.01.1990)")}
		}
		s.birthDate = d
		s.state = stateAwaitBirthTime
		return []outbound{textOut("Enter your birth time as <b>HH:MM</b>\n(for example: 14:30). If unknown, enter <b>12:00</b>")}

	case stateAwaitBirthTime:
		tm, err := time.Parse("15:04", text)
		if err != nil {
			return []outbound{textOut("Invalid time format. Use HH:MM (for example: 14:30)")}
		}
		s.birthTime = tm
		s.state = stateAwaitBirthCity
		return []outbound{textOut("Enter your <b>birth city</b> (for example: Moscow, London, Almaty)")}

	case stateAwaitBirthCity:
		place, err := f.forecasts.ResolveCity(ctx, text)
		if err != nil {
			// Stay in this state and let the user retry.
			switch {
			case errors.Is(err, geocoder.ErrNotFound):
				return []outbound{textOut("City %q not found. Try the English or local name (for example: Moscow, London).", text)}
			case errors.Is(err, geocoder.ErrNotPopulated):
				return []outbound{textOut("%q was not recognized as a city. Please enter a city name (for example: Moscow, London).", text)}
			default:
				log.Printf("geocode for chat %d failed: %v", chatID, err)
				return []outbound{textOut("Could not look up that city right now. Please try again.")}
			}
		}

		birth := domain.BirthData{
			Name:   s.name,
			Year:   s.birthDate.Year(),
			Month:  s.birthDate.Month(),
			Day:    s.birthDate.Day(),
			Hour:   s.birthTime.Hour(),
			Minute: s.birthTime.Minute(),
			Place:  place,
		}
		f.reset(chatID)
		return f.deliver(ctx, chatID, birth)

	default:
		return nil
	}
}

// deliver runs the computation and builds the full result sequence:
// summary, calculation data, wheel image, forecast, dynamics, prompt
// document, and the advisor's prose when available.
func (f *flow) deliver(ctx context.Context, chatID int64, birth domain.BirthData) []outbound {
	out := []outbound{summaryMessage(birth)}

	forecast, image, err := f.forecasts.Compute(ctx, birth)
	if err != nil {
		log.Printf("forecast for chat %d failed: %v", chatID, err)
		return append(out, textOut("Sorry, the calculation failed. Please try again later."))
	}

	out = append(out, outbound{text: f.reports.CalculationMessage(forecast)})

	if image != nil && len(image.Bytes) > 0 {
		out = append(out, outbound{
			photo: image.Bytes,
			text:  wheelCaption(forecast),
		})
	}

	out = append(out, outbound{text: f.reports.ForecastMessage(forecast)})
	out = append(out, outbound{text: f.reports.DynamicsMessage(forecast.Points.Ascendant, forecast.EndPoints.Midheaven)})

	prompt := f.reports.Prompt(forecast)
	out = append(out, outbound{
		document: []byte(prompt),
		filename: "forecast_prompt.txt",
		text:     "📄 Prompt document for your own language model run.",
	})

	if f.advisor != nil && f.advisor.Enabled() {
		prose, err := f.advisor.Generate(ctx, prompt)
		if err != nil {
			log.Printf("advisor for chat %d failed: %v", chatID, err)
		} else {
			if len(prose) > 4000 {
				prose = prose[:4000] + "\n\n[truncated]"
			}
			out = append(out, textOut("🔮 <b>Your forecast, in prose</b>\n\n%s", prose))
		}
	}

	return out
}

func summaryMessage(birth domain.BirthData) outbound {
	var b strings.Builder
	b.WriteString("📋 <b>Calculation input</b>\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "👤 Name: <b>%s</b>\n", birth.Name)
	fmt.Fprintf(&b, "📅 Birth date: <b>%02d.%02d.%04d</b>\n", birth.Day, birth.Month, birth.Year)
	fmt.Fprintf(&b, "🕐 Birth time: <b>%02d:%02d</b>\n", birth.Hour, birth.Minute)
	fmt.Fprintf(&b, "📍 City: <b>%s</b>\n", escapeName(birth.Place.DisplayName))
	fmt.Fprintf(&b, "🕰 Timezone: <b>%s (UTC%+.1f)</b>\n", birth.Place.Timezone, birth.Place.UTCOffsetHours)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString("⏳ Computing your forecast...")
	return outbound{text: b.String()}
}

func wheelCaption(f domain.Forecast) string {
	synthSign := "—"
	if f.SyntheticSign != nil {
		synthSign = f.SyntheticSign.String()
	}
	synthHouse := "—"
	if f.SyntheticHouse != nil {
		synthHouse = fmt.Sprintf("%d", *f.SyntheticHouse)
	}
	return fmt.Sprintf(
		"🔯 <b>Lunar Return wheel</b>\n━━━━━━━━━━━━━━━━━━━━\nASC: <b>%s</b> · MC: <b>%s</b>\nSynthetic sign: <b>%s</b> · House: <b>%s</b>",
		f.Points.Ascendant, f.Points.Midheaven, synthSign, synthHouse,
	)
}

var nameEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", "&", "&amp;")

// escapeName trims, caps and HTML-escapes user-entered text so it is
// safe to echo back in HTML messages. The cap counts runes, not bytes:
// Telegram rejects requests containing invalid UTF-8.
func escapeName(raw string) string {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) > 64 {
		raw = string([]rune(raw)[:64])
	}
	return nameEscaper.Replace(raw)
}
