package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"astrowheel/internal/domain"
	"astrowheel/internal/geocoder"
)

type stubProvider struct {
	place      domain.GeoPlace
	resolveErr error
	computeErr error
	image      *domain.ChartImageData
	lastBirth  domain.BirthData
}

func (p *stubProvider) ResolveCity(ctx context.Context, city string) (domain.GeoPlace, error) {
	if p.resolveErr != nil {
		return domain.GeoPlace{}, p.resolveErr
	}
	return p.place, nil
}

func (p *stubProvider) Compute(ctx context.Context, birth domain.BirthData) (domain.Forecast, *domain.ChartImageData, error) {
	p.lastBirth = birth
	if p.computeErr != nil {
		return domain.Forecast{}, nil, p.computeErr
	}
	sign := domain.Aries
	house := domain.House(1)
	return domain.Forecast{
		Cycle:          domain.LunarReturnCycle{Start: time.Now().UTC(), End: time.Now().UTC().Add(27 * 24 * time.Hour)},
		Points:         domain.ChartPoints{Ascendant: domain.Leo, Midheaven: domain.Taurus},
		EndPoints:      domain.ChartPoints{Ascendant: domain.Libra, Midheaven: domain.Cancer},
		SignDominant:   domain.Dominant{Element: domain.ElementFire, Modality: domain.ModalityCardinal},
		HouseDominant:  domain.Dominant{Element: domain.ElementFire, Modality: domain.ModalityCardinal},
		SyntheticSign:  &sign,
		SyntheticHouse: &house,
	}, p.image, nil
}

type stubReports struct{}

func (stubReports) ForecastMessage(domain.Forecast) string    { return "forecast body" }
func (stubReports) DynamicsMessage(a, m domain.Sign) string   { return fmt.Sprintf("dynamics %s %s", a, m) }
func (stubReports) CalculationMessage(domain.Forecast) string { return "calc body" }
func (stubReports) Prompt(domain.Forecast) string             { return "prompt body" }

type stubAdvisor struct {
	enabled bool
	text    string
	err     error
}

func (a *stubAdvisor) Enabled() bool { return a.enabled }
func (a *stubAdvisor) Generate(ctx context.Context, prompt string) (string, error) {
	return a.text, a.err
}

func runConversation(t *testing.T, f *flow, chatID int64, inputs ...string) []outbound {
	t.Helper()
	var last []outbound
	for _, in := range inputs {
		last = f.handleText(context.Background(), chatID, in)
		if len(last) == 0 {
			t.Fatalf("no reply for input %q", in)
		}
	}
	return last
}

func TestFlowHappyPath(t *testing.T) {
	provider := &stubProvider{
		place: domain.GeoPlace{Lat: 55.75, Lon: 37.62, Timezone: "UTC+3", UTCOffsetHours: 3, DisplayName: "Moscow, Russia"},
		image: &domain.ChartImageData{Ref: domain.ChartImageRef{MimeType: "image/png"}, Bytes: []byte{1, 2, 3}},
	}
	f := newFlow(provider, stubReports{}, nil)

	begin := f.begin(7)
	if !strings.Contains(begin.text, "name") {
		t.Fatalf("begin = %q", begin.text)
	}

	out := runConversation(t, f, 7, "Alex", "15.01.1990", "14:30", "Moscow")

	if provider.lastBirth.Name != "Alex" || provider.lastBirth.Year != 1990 ||
		provider.lastBirth.Month != time.January || provider.lastBirth.Day != 15 ||
		provider.lastBirth.Hour != 14 || provider.lastBirth.Minute != 30 {
		t.Fatalf("birth data = %+v", provider.lastBirth)
	}

	// Summary, calc, photo, forecast, dynamics, prompt document.
	if len(out) != 6 {
		t.Fatalf("got %d messages, want 6: %+v", len(out), out)
	}
	if !strings.Contains(out[0].text, "Moscow, Russia") || !strings.Contains(out[0].text, "UTC+3.0") {
		t.Fatalf("summary = %q", out[0].text)
	}
	if out[2].photo == nil || !strings.Contains(out[2].text, "Lunar Return wheel") {
		t.Fatalf("photo message = %+v", out[2])
	}
	if out[5].document == nil || out[5].filename != "forecast_prompt.txt" {
		t.Fatalf("document message = %+v", out[5])
	}

	// Conversation is over; further text is ignored.
	if more := f.handleText(context.Background(), 7, "hello"); more != nil {
		t.Fatalf("expected no reply after completion, got %+v", more)
	}
}

func TestFlowValidatesDateAndTime(t *testing.T) {
	f := newFlow(&stubProvider{}, stubReports{}, nil)
	f.begin(1)

	out := runConversation(t, f, 1, "Alex", "1990-01-15")
	if !strings.Contains(out[0].text, "Invalid date") {
		t.Fatalf("reply = %q", out[0].text)
	}

	out = runConversation(t, f, 1, "15.01.1990", "half past two")
	if !strings.Contains(out[0].text, "Invalid time") {
		t.Fatalf("reply = %q", out[0].text)
	}

	out = runConversation(t, f, 1, "14:30")
	if !strings.Contains(out[0].text, "birth city") {
		t.Fatalf("reply = %q", out[0].text)
	}
}

func TestFlowGeocodeFailureKeepsState(t *testing.T) {
	provider := &stubProvider{resolveErr: fmt.Errorf("wrap: %w", geocoder.ErrNotFound)}
	f := newFlow(provider, stubReports{}, nil)
	f.begin(2)

	out := runConversation(t, f, 2, "Alex", "15.01.1990", "14:30", "Xyzzy")
	if !strings.Contains(out[0].text, "not found") {
		t.Fatalf("reply = %q", out[0].text)
	}

	// Retry succeeds from the same state.
	provider.resolveErr = nil
	provider.place = domain.GeoPlace{DisplayName: "Paris, France"}
	out = f.handleText(context.Background(), 2, "Paris")
	if len(out) < 2 || !strings.Contains(out[0].text, "Paris, France") {
		t.Fatalf("retry output = %+v", out)
	}
}

func TestFlowComputeFailureApologizes(t *testing.T) {
	provider := &stubProvider{computeErr: fmt.Errorf("engine down")}
	f := newFlow(provider, stubReports{}, nil)
	f.begin(3)

	out := runConversation(t, f, 3, "Alex", "15.01.1990", "14:30", "Moscow")
	last := out[len(out)-1]
	if !strings.Contains(last.text, "Sorry") {
		t.Fatalf("last message = %q", last.text)
	}
}

func TestFlowAppendsAdvisorProse(t *testing.T) {
	provider := &stubProvider{place: domain.GeoPlace{DisplayName: "Moscow"}}
	f := newFlow(provider, stubReports{}, &stubAdvisor{enabled: true, text: "a gentle month awaits"})
	f.begin(4)

	out := runConversation(t, f, 4, "Alex", "15.01.1990", "14:30", "Moscow")
	last := out[len(out)-1]
	if !strings.Contains(last.text, "a gentle month awaits") {
		t.Fatalf("advisor message = %q", last.text)
	}

	// Advisor failure must not break the delivery.
	f2 := newFlow(provider, stubReports{}, &stubAdvisor{enabled: true, err: fmt.Errorf("quota")})
	f2.begin(5)
	out = runConversation(t, f2, 5, "Alex", "15.01.1990", "14:30", "Moscow")
	if strings.Contains(out[len(out)-1].text, "quota") {
		t.Fatal("advisor error leaked to the user")
	}
}

func TestEscapeName(t *testing.T) {
	if got := escapeName("  <b>Alex</b> & co "); got != "&lt;b&gt;Alex&lt;/b&gt; &amp; co" {
		t.Fatalf("escaped = %q", got)
	}
	long := strings.Repeat("a", 100)
	if got := escapeName(long); len(got) != 64 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestEscapeNameKeepsMultibyteRunesIntact(t *testing.T) {
	long := "А" + strings.Repeat("Ж", 100)
	got := escapeName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 64 {
		t.Fatalf("rune count = %d, want 64", n)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFlow(&stubProvider{}, stubReports{}, nil)
	f.begin(10)
	f.begin(11)

	f.handleText(context.Background(), 10, "Alice")
	if f.session(11).state != stateAwaitName {
		t.Fatal("chat 11 state leaked from chat 10")
	}
	if f.session(10).state != stateAwaitBirthDate {
		t.Fatal("chat 10 did not advance")
	}
}
