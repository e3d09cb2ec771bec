package lca

import (
	"sort"
	"strings"
)

// Normalize returns a canonical copy of the inputs suitable both for
// calculation and for content-addressed cache keying:
//
//   - negative quantities are clamped to zero
//   - enumeration members are canonicalized (unknown values map to their
//     conservative default)
//   - fertilizer line items are sorted by type, then rate
//   - end-of-life rates are clipped to [0,1] and rescaled when their sum
//     exceeds 1
//   - absent stages stay absent and are omitted from the canonical form
//
// Two semantically identical inputs normalize to an identical value, so the
// JSON encoding of the normalized form is order-independent with respect to
// the caller's original field layout.
func Normalize(in StageInputs) StageInputs {
	var out StageInputs
	if a := normalizeAgriculture(in.Agriculture); a != nil {
		out.Agriculture = a
	}
	if t := normalizeTransport(in.InboundTransport); t != nil {
		out.InboundTransport = t
	}
	if p := normalizeProcessing(in.Processing); p != nil {
		out.Processing = p
	}
	if p := normalizePackaging(in.Packaging); p != nil {
		out.Packaging = p
	}
	if d := normalizeDistribution(in.Distribution); d != nil {
		out.Distribution = d
	}
	if e := normalizeEndOfLife(in.EndOfLife); e != nil {
		out.EndOfLife = e
	}
	return out
}

// clamp zeroes negative physical quantities.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func normalizeAgriculture(a *AgricultureInputs) *AgricultureInputs {
	if a == nil {
		return nil
	}
	practice, _ := a.Practice.Canonical()
	out := &AgricultureInputs{
		CropType:              strings.ToLower(strings.TrimSpace(a.CropType)),
		YieldTonnesPerHectare: clamp(a.YieldTonnesPerHectare),
		DieselLPerHectare:     clamp(a.DieselLPerHectare),
		Practice:              practice,
		LandQualityIndex:      clamp(a.LandQualityIndex),
		IrrigationM3PerHa:     clamp(a.IrrigationM3PerHa),
	}
	for _, f := range a.Fertilizers {
		rate := clamp(f.KgPerHectare)
		if rate == 0 {
			continue
		}
		out.Fertilizers = append(out.Fertilizers, FertilizerUse{
			Type:         strings.ToLower(strings.TrimSpace(f.Type)),
			KgPerHectare: rate,
		})
	}
	sort.Slice(out.Fertilizers, func(i, j int) bool {
		if out.Fertilizers[i].Type != out.Fertilizers[j].Type {
			return out.Fertilizers[i].Type < out.Fertilizers[j].Type
		}
		return out.Fertilizers[i].KgPerHectare < out.Fertilizers[j].KgPerHectare
	})
	return out
}

func normalizeTransport(t *TransportInputs) *TransportInputs {
	if t == nil {
		return nil
	}
	mode, _ := t.Mode.Canonical()
	load := t.LoadFactor
	// A missing or out-of-range load factor means a full load.
	if load <= 0 || load > 1 {
		load = 1
	}
	return &TransportInputs{
		DistanceKm:   clamp(t.DistanceKm),
		Mode:         mode,
		LoadFactor:   load,
		Refrigerated: t.Refrigerated,
		MassTonnes:   clamp(t.MassTonnes),
	}
}

func normalizeProcessing(p *ProcessingInputs) *ProcessingInputs {
	if p == nil {
		return nil
	}
	out := &ProcessingInputs{
		ElectricityKWh: clamp(p.ElectricityKWh),
		WaterL:         clamp(p.WaterL),
	}
	if p.Fermentation != nil {
		out.Fermentation = &FermentationSpec{
			DurationDays: clamp(p.Fermentation.DurationDays),
			TemperatureC: p.Fermentation.TemperatureC,
		}
	}
	if p.Distillation != nil {
		rounds := p.Distillation.Rounds
		if rounds < 0 {
			rounds = 0
		}
		out.Distillation = &DistillationSpec{
			Rounds:          rounds,
			EnergyKWhPerRun: clamp(p.Distillation.EnergyKWhPerRun),
		}
	}
	if p.Maturation != nil {
		out.Maturation = &MaturationSpec{
			DurationMonths: clamp(p.Maturation.DurationMonths),
			ContainerType:  strings.ToLower(strings.TrimSpace(p.Maturation.ContainerType)),
		}
	}
	return out
}

func normalizeComponent(c *PackagingComponent) *PackagingComponent {
	if c == nil {
		return nil
	}
	material, _ := c.Material.Canonical()
	pct := c.RecycledContentPct
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &PackagingComponent{
		Material:           material,
		WeightKg:           clamp(c.WeightKg),
		RecycledContentPct: pct,
	}
}

func normalizePackaging(p *PackagingInputs) *PackagingInputs {
	if p == nil {
		return nil
	}
	return &PackagingInputs{
		Container: normalizeComponent(p.Container),
		Label:     normalizeComponent(p.Label),
		Closure:   normalizeComponent(p.Closure),
		Secondary: normalizeComponent(p.Secondary),
	}
}

func normalizeDistribution(d *DistributionInputs) *DistributionInputs {
	if d == nil {
		return nil
	}
	mode, _ := d.Mode.Canonical()
	return &DistributionInputs{
		Mode:                mode,
		DistanceKm:          clamp(d.DistanceKm),
		StorageDurationDays: clamp(d.StorageDurationDays),
		Refrigerated:        d.Refrigerated,
	}
}

func normalizeEndOfLife(e *EndOfLifeInputs) *EndOfLifeInputs {
	if e == nil {
		return nil
	}
	rec := clip01(e.RecyclingRate)
	lf := clip01(e.LandfillRate)
	inc := clip01(e.IncinerationRate)
	if sum := rec + lf + inc; sum > 1 {
		rec /= sum
		lf /= sum
		inc /= sum
	}
	return &EndOfLifeInputs{
		RecyclingRate:    rec,
		LandfillRate:     lf,
		IncinerationRate: inc,
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HasUnknownEnums reports whether any closed-enumeration field carries an
// unrecognized member. Calculators use it to lower declared data quality
// while still producing a result.
func HasUnknownEnums(in StageInputs) bool {
	if in.Agriculture != nil {
		if _, ok := in.Agriculture.Practice.Canonical(); !ok {
			return true
		}
	}
	if in.InboundTransport != nil {
		if _, ok := in.InboundTransport.Mode.Canonical(); !ok {
			return true
		}
	}
	if in.Distribution != nil {
		if _, ok := in.Distribution.Mode.Canonical(); !ok {
			return true
		}
	}
	if in.Packaging != nil {
		for _, c := range []*PackagingComponent{
			in.Packaging.Container, in.Packaging.Label, in.Packaging.Closure, in.Packaging.Secondary,
		} {
			if c == nil {
				continue
			}
			if _, ok := c.Material.Canonical(); !ok {
				return true
			}
		}
	}
	return false
}
