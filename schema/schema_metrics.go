package schema

// MetricDefinition describes how one score is computed, for display purposes.
type MetricDefinition struct {
	Name      string  `json:"name"`
	Purpose   string  `json:"purpose"`
	Formula   string  `json:"formula"`
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
}

// HealthBand is the inclusive lower bound of a health label.
type HealthBand struct {
	Label HealthLabel `json:"label"`
	Floor int         `json:"floor"`
}

// MetricsRenderModel contains all processed data needed for displaying metrics definitions.
type MetricsRenderModel struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Metrics        []MetricDefinition `json:"metrics"`
	OverallFormula string             `json:"overall_formula"`
	HealthBands    []HealthBand       `json:"health_bands"`
}

// HealthBands lists every label with its floor, best first.
func HealthBands() []HealthBand {
	return []HealthBand{
		{Label: HealthExcellent, Floor: ExcellentFloor},
		{Label: HealthGood, Floor: GoodFloor},
		{Label: HealthFair, Floor: FairFloor},
		{Label: HealthNeedsImprovement, Floor: 0},
	}
}
