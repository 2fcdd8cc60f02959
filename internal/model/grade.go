// internal/model/grade.go
package model

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// GradeForScore maps a composite score onto the A-D bands.
// The bands are inclusive at the bottom: 80 is an A, 79.9 is a B.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 60:
		return GradeB
	case score >= 40:
		return GradeC
	default:
		return GradeD
	}
}
