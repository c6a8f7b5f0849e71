package models

// CrimeSeverity is the stored severity level of a crime. Lower stored values
// are more dangerous: 0 is critical (serial murder, terrorism) and 3 is minor
// (petty theft). Use Value for the 1-4 ascending danger scale.
type CrimeSeverity int

const (
	SeverityCritical CrimeSeverity = 0 // serial murder, terrorism
	SeverityLevel1   CrimeSeverity = 1 // severe (murder)
	SeverityLevel2   CrimeSeverity = 2 // major (car theft)
	SeverityLevel3   CrimeSeverity = 3 // minor (petty theft, minor fraud)
)

// Value converts the stored level to the 1-4 danger ranking used by the
// most-wanted and bail formulas: 1 is least dangerous, 4 is most.
func (s CrimeSeverity) Value() int {
	return 4 - int(s)
}

// Valid reports whether the stored level is one of the four known tiers.
func (s CrimeSeverity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityLevel3
}
