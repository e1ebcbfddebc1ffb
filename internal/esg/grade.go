package esg

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// AssignGrade maps a score to a letter grade using inclusive lower bounds.
// Out-of-range input is not rejected: anything at or above 90 is an A and
// anything below 45 (including NaN) is an E.
func AssignGrade(score float64) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 75:
		return GradeB
	case score >= 60:
		return GradeC
	case score >= 45:
		return GradeD
	default:
		return GradeE
	}
}

type GradedScore struct {
	Score float64 `json:"score"`
	Grade Grade   `json:"grade"`
}

type GradedCategory struct {
	Score         float64            `json:"score"`
	Grade         Grade              `json:"grade"`
	Subcategories map[string]float64 `json:"subcategories"`
}

// Report is a Result with a grade attached to every score.
type Report struct {
	Business      GradedScore    `json:"business"`
	Industry      GradedScore    `json:"industry"`
	Environmental GradedCategory `json:"environmental"`
	Social        GradedCategory `json:"social"`
	Governance    GradedCategory `json:"governance"`
	Overall       GradedScore    `json:"overall"`
}

func GradeResult(r Result) Report {
	return Report{
		Business:      graded(r.Business),
		Industry:      graded(r.Industry),
		Environmental: gradedCategory(r.Environmental),
		Social:        gradedCategory(r.Social),
		Governance:    gradedCategory(r.Governance),
		Overall:       graded(r.Overall),
	}
}

func graded(score float64) GradedScore {
	return GradedScore{Score: score, Grade: AssignGrade(score)}
}

func gradedCategory(c CategoryResult) GradedCategory {
	return GradedCategory{Score: c.Score, Grade: AssignGrade(c.Score), Subcategories: c.Subcategories}
}
