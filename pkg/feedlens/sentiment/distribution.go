package sentiment

import "github.com/cognicore/feedlens/internal/numeric"

// Distribution summarises the labels and scores of a result set.
type Distribution struct {
	Total              int     `json:"total"`
	Positive           int     `json:"positive"`
	Negative           int     `json:"negative"`
	Neutral            int     `json:"neutral"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	AverageScore       float64 `json:"average_score"`
	AverageConfidence  float64 `json:"average_confidence"`
}

// Distribute computes the distribution of results. Percentages are rounded to
// two decimals and averages to four. Empty input yields all zeros.
func Distribute(results []Result) Distribution {
	var d Distribution
	d.Total = len(results)
	if d.Total == 0 {
		return d
	}

	var scoreSum, confSum float64
	for _, r := range results {
		switch r.Label {
		case Positive:
			d.Positive++
		case Negative:
			d.Negative++
		default:
			d.Neutral++
		}
		scoreSum += r.Score
		confSum += r.Confidence
	}

	n := float64(d.Total)
	d.PositivePercentage = numeric.Round(float64(d.Positive)/n*100, 2)
	d.NegativePercentage = numeric.Round(float64(d.Negative)/n*100, 2)
	d.NeutralPercentage = numeric.Round(float64(d.Neutral)/n*100, 2)
	d.AverageScore = numeric.Round(scoreSum/n, precision)
	d.AverageConfidence = numeric.Round(confSum/n, precision)
	return d
}
