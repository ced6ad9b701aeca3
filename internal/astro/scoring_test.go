package astro

import (
	"testing"

	"astrowheel/internal/domain"
)

func TestScoresSingleSunInAriesHouseOne(t *testing.T) {
	planets := []domain.PlanetPosition{
		{Body: domain.BodySun, Sign: domain.Aries, House: 1},
	}
	signScores, houseScores := Scores(planets)

	if signScores.Elements[domain.ElementFire] != 5 || signScores.Modalities[domain.ModalityCardinal] != 5 {
		t.Fatalf("sign scores = %+v, want Fire 5 / Cardinal 5", signScores)
	}
	if houseScores.Elements[domain.ElementFire] != 5 || houseScores.Modalities[domain.ModalityCardinal] != 5 {
		t.Fatalf("house scores = %+v, want Fire 5 / Cardinal 5", houseScores)
	}

	dom := Dominants(signScores)
	if dom.Element != domain.ElementFire || dom.Modality != domain.ModalityCardinal {
		t.Fatalf("dominants = %+v, want Fire/Cardinal", dom)
	}

	sign, ok := SyntheticSign(dom)
	if !ok || sign != domain.Aries {
		t.Fatalf("synthetic sign = %s (%v), want Aries", sign, ok)
	}
	house, ok := SyntheticHouse(Dominants(houseScores))
	if !ok || house != 1 {
		t.Fatalf("synthetic house = %d (%v), want 1", house, ok)
	}
}

func TestScoresAccumulateAcrossBodies(t *testing.T) {
	planets := []domain.PlanetPosition{
		{Body: domain.BodySun, Sign: domain.Leo, House: 5},      // Fire/Fixed both ways, weight 5
		{Body: domain.BodyMercury, Sign: domain.Leo, House: 3},  // sign Fire/Fixed, house Air/Mutable, weight 3
		{Body: domain.BodyPluto, Sign: domain.Cancer, House: 4}, // Water/Cardinal both ways, weight 1
	}
	signScores, houseScores := Scores(planets)

	if got := signScores.Elements[domain.ElementFire]; got != 8 {
		t.Fatalf("sign Fire = %d, want 8", got)
	}
	if got := signScores.Elements[domain.ElementWater]; got != 1 {
		t.Fatalf("sign Water = %d, want 1", got)
	}
	if got := houseScores.Elements[domain.ElementAir]; got != 3 {
		t.Fatalf("house Air = %d, want 3", got)
	}
	if got := houseScores.Modalities[domain.ModalityFixed]; got != 5 {
		t.Fatalf("house Fixed = %d, want 5", got)
	}
}

func TestScoresSkipUnweightedBodies(t *testing.T) {
	planets := []domain.PlanetPosition{
		{Body: domain.Body("Ceres"), Sign: domain.Aries, House: 1},
	}
	signScores, houseScores := Scores(planets)
	if len(signScores.Elements) != 0 || len(houseScores.Elements) != 0 {
		t.Fatalf("unweighted body must not score: %+v / %+v", signScores, houseScores)
	}
}

func TestDominantsTieBreakIsDeterministic(t *testing.T) {
	// Fire and Earth tie at 5; Cardinal and Fixed tie at 5. The fixed
	// enumeration order picks Fire and Cardinal every time.
	planets := []domain.PlanetPosition{
		{Body: domain.BodySun, Sign: domain.Aries, House: 1},   // Fire/Cardinal
		{Body: domain.BodyMoon, Sign: domain.Taurus, House: 2}, // Earth/Fixed
	}
	signScores, _ := Scores(planets)
	for i := 0; i < 50; i++ {
		dom := Dominants(signScores)
		if dom.Element != domain.ElementFire || dom.Modality != domain.ModalityCardinal {
			t.Fatalf("iteration %d: dominants = %+v, want Fire/Cardinal", i, dom)
		}
	}
}

func TestDominantsEmptyTableUndefined(t *testing.T) {
	dom := Dominants(domain.NewScoreTable())
	if dom.Defined() {
		t.Fatalf("empty table produced defined dominant %+v", dom)
	}
	if _, ok := SyntheticSign(dom); ok {
		t.Fatal("undefined dominant must not synthesize a sign")
	}
	if _, ok := SyntheticHouse(dom); ok {
		t.Fatal("undefined dominant must not synthesize a house")
	}
}

func TestSyntheticResolutionCoversAllDominantPairs(t *testing.T) {
	for _, el := range domain.Elements {
		for _, mod := range domain.Modalities {
			dom := domain.Dominant{Element: el, Modality: mod}
			sign, ok := SyntheticSign(dom)
			if !ok {
				t.Fatalf("no synthetic sign for %s/%s", el, mod)
			}
			if tr := domain.SignTraits[sign]; tr.Element != el || tr.Modality != mod {
				t.Fatalf("synthetic sign %s has traits %+v, want %s/%s", sign, tr, el, mod)
			}
			house, ok := SyntheticHouse(dom)
			if !ok {
				t.Fatalf("no synthetic house for %s/%s", el, mod)
			}
			if tr := domain.HouseTraits[house]; tr.Element != el || tr.Modality != mod {
				t.Fatalf("synthetic house %d has traits %+v, want %s/%s", house, tr, el, mod)
			}
		}
	}
}
