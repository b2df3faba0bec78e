package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for reports and history.
	DatabaseBackend string

	// HealthLabel is the categorical bucket of an overall score.
	HealthLabel string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Health labels, from best to worst.
const (
	HealthExcellent        HealthLabel = "Excellent"
	HealthGood             HealthLabel = "Good"
	HealthFair             HealthLabel = "Fair"
	HealthNeedsImprovement HealthLabel = "Needs Improvement"
)

// Lower bounds (inclusive) of each health band.
const (
	ExcellentFloor = 80
	GoodFloor      = 70
	FairFloor      = 50
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// GetHealthLabel maps an overall score to its health band.
func GetHealthLabel(score int) HealthLabel {
	switch {
	case score >= ExcellentFloor:
		return HealthExcellent
	case score >= GoodFloor:
		return HealthGood
	case score >= FairFloor:
		return HealthFair
	default:
		return HealthNeedsImprovement
	}
}
