package esg

// IndustryScore is the fixed industry benchmark folded into the overall score.
const IndustryScore = 75.0

type CategoryResult struct {
	Score         float64            `json:"score"`
	Subcategories map[string]float64 `json:"subcategories"`
}

// Result holds the numeric scores for one submission. Grades are attached
// separately by GradeResult.
type Result struct {
	Environmental CategoryResult `json:"environmental"`
	Social        CategoryResult `json:"social"`
	Governance    CategoryResult `json:"governance"`
	Business      float64        `json:"business"`
	Industry      float64        `json:"industry"`
	Overall       float64        `json:"overall"`
}

// CategoryScore returns the percentage of answers that are exactly "true",
// or 0 for an empty list.
func CategoryScore(answers []QuestionAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	trueAnswers := 0
	for _, qa := range answers {
		if qa.Affirmative() {
			trueAnswers++
		}
	}
	return float64(trueAnswers) / float64(len(answers)) * 100
}

// SubcategoryScore expresses a subcategory's own score relative to its
// category score. It is not bounded by 100: a subcategory that outperforms
// the blended category scores above it.
func SubcategoryScore(answers []QuestionAnswer, categoryScore float64) float64 {
	if categoryScore <= 0 {
		return 0
	}
	return CategoryScore(answers) / categoryScore * 100
}

// Score computes pillar, business, industry and overall scores for a
// submission, along with per-subcategory breakdowns for every pillar.
func Score(sub Submission) Result {
	env := scorePillar(sub.Environment.Subcategories())
	soc := scorePillar(sub.Social.Subcategories())
	gov := scorePillar(sub.Governance.Subcategories())

	business := (env.Score + soc.Score + gov.Score) / 3
	// pillars are counted twice: directly and through business
	overall := (business + IndustryScore + env.Score + soc.Score + gov.Score) / 5

	return Result{
		Environmental: env,
		Social:        soc,
		Governance:    gov,
		Business:      business,
		Industry:      IndustryScore,
		Overall:       overall,
	}
}

func scorePillar(subs []Subcategory) CategoryResult {
	var flat []QuestionAnswer
	for _, s := range subs {
		flat = append(flat, s.Answers...)
	}
	score := CategoryScore(flat)
	breakdown := make(map[string]float64, len(subs))
	for _, s := range subs {
		breakdown[s.Name] = SubcategoryScore(s.Answers, score)
	}
	return CategoryResult{Score: score, Subcategories: breakdown}
}
