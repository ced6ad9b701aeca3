package astro

import "astrowheel/internal/domain"

// Scores aggregates weighted element/modality buckets for a chart,
// once by occupied sign and once by occupied house. Bodies without a
// configured weight contribute nothing.
func Scores(planets []domain.PlanetPosition) (signScores, houseScores domain.ScoreTable) {
	signScores = domain.NewScoreTable()
	houseScores = domain.NewScoreTable()

	for _, p := range planets {
		weight := domain.BodyWeights[p.Body]
		if weight == 0 {
			continue
		}

		if p.Sign.Valid() {
			tr := domain.SignTraits[p.Sign]
			signScores.Elements[tr.Element] += weight
			signScores.Modalities[tr.Modality] += weight
		}
		if tr, ok := domain.HouseTraits[p.House]; ok {
			houseScores.Elements[tr.Element] += weight
			houseScores.Modalities[tr.Modality] += weight
		}
	}
	return signScores, houseScores
}

// Dominants returns the argmax element and modality of a score table.
// Ties break on the fixed enumeration order of Elements/Modalities, so
// the result is deterministic. An empty table yields the undefined
// zero Dominant.
func Dominants(scores domain.ScoreTable) domain.Dominant {
	if len(scores.Elements) == 0 || len(scores.Modalities) == 0 {
		return domain.Dominant{}
	}

	var dom domain.Dominant
	best := -1
	for _, el := range domain.Elements {
		if v, ok := scores.Elements[el]; ok && v > best {
			best = v
			dom.Element = el
		}
	}
	best = -1
	for _, mod := range domain.Modalities {
		if v, ok := scores.Modalities[mod]; ok && v > best {
			best = v
			dom.Modality = mod
		}
	}
	return dom
}

// SyntheticSign resolves a dominant pair to the single sign carrying
// exactly those traits. Reports false for an undefined dominant.
func SyntheticSign(dom domain.Dominant) (domain.Sign, bool) {
	if !dom.Defined() {
		return 0, false
	}
	for s := domain.Aries; s <= domain.Pisces; s++ {
		tr := domain.SignTraits[s]
		if tr.Element == dom.Element && tr.Modality == dom.Modality {
			return s, true
		}
	}
	return 0, false
}

// SyntheticHouse resolves a dominant pair to the single house carrying
// exactly those traits. Reports false for an undefined dominant.
func SyntheticHouse(dom domain.Dominant) (domain.House, bool) {
	if !dom.Defined() {
		return 0, false
	}
	for h := domain.House(1); h <= 12; h++ {
		tr := domain.HouseTraits[h]
		if tr.Element == dom.Element && tr.Modality == dom.Modality {
			return h, true
		}
	}
	return 0, false
}
