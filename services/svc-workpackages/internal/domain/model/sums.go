package model

// Sums are the totals of the summable attributes over a set of work
// packages. Nullable attributes stay nil when no element carries a value.
type Sums struct {
	EstimatedHours *float64
	RemainingHours *float64
	StoryPoints    *int64
	LaborCosts     float64
	MaterialCosts  float64
}

// SummableFields lists the attributes reported in sums, in wire order.
var SummableFields = []string{
	FieldEstimatedTime,
	FieldRemainingTime,
	FieldStoryPoints,
	FieldLaborCosts,
	FieldMaterialCosts,
	FieldOverallCosts,
}

func SumWorkPackages(elements []*WorkPackage) Sums {
	var sums Sums

	for _, w := range elements {
		sums.EstimatedHours = addNullable(sums.EstimatedHours, w.EstimatedHours)
		sums.RemainingHours = addNullable(sums.RemainingHours, w.RemainingHours)
		sums.StoryPoints = addNullable(sums.StoryPoints, w.StoryPoints)
		sums.LaborCosts += w.LaborCosts
		sums.MaterialCosts += w.MaterialCosts
	}

	return sums
}

func (s Sums) OverallCosts() float64 {
	return s.LaborCosts + s.MaterialCosts
}

// Formatted returns the wire values keyed by attribute name. Durations are
// ISO-8601 strings, costs carry the currency.
func (s Sums) Formatted(currency string) map[string]any {
	out := make(map[string]any, len(SummableFields))

	out[FieldEstimatedTime] = formatNullableHours(s.EstimatedHours)
	out[FieldRemainingTime] = formatNullableHours(s.RemainingHours)

	if s.StoryPoints != nil {
		out[FieldStoryPoints] = *s.StoryPoints
	} else {
		out[FieldStoryPoints] = nil
	}

	out[FieldLaborCosts] = FormatMoney(s.LaborCosts, currency)
	out[FieldMaterialCosts] = FormatMoney(s.MaterialCosts, currency)
	out[FieldOverallCosts] = FormatMoney(s.OverallCosts(), currency)

	return out
}

func formatNullableHours(hours *float64) any {
	if hours == nil {
		return nil
	}

	return FormatHours(*hours)
}

func addNullable[T int64 | float64](sum, v *T) *T {
	if v == nil {
		return sum
	}

	if sum == nil {
		total := *v

		return &total
	}

	total := *sum + *v

	return &total
}
