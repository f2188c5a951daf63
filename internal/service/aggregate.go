package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/cases"

	"feedbackdesk/internal/model"
)

// AggregateOptions tunes Compute. Thresholds are used as given; zero is a
// valid threshold.
type AggregateOptions struct {
	HighThreshold int
	LowThreshold  int
	Search        string
	Now           time.Time
}

// Compute builds the dashboard from responses (newest first) and the ordered
// schema. It is pure: the same input always yields the same dashboard.
func Compute(responses []*model.Response, questions []model.Question, opts AggregateOptions) (*model.Dashboard, error) {
	d := &model.Dashboard{
		TotalResponses: len(responses),
		HighThreshold:  opts.HighThreshold,
		LowThreshold:   opts.LowThreshold,
		Questions:      questions,
		Ratings:        []model.RatingStats{},
		SearchTerm:     strings.TrimSpace(opts.Search),
		ComputedAt:     opts.Now,
	}

	var textQuestions []model.Question
	for _, q := range questions {
		switch q.Type {
		case model.QuestionTypeRating:
			values := NumericValues(responses, q.ID)
			d.Ratings = append(d.Ratings, RatingSummary(q, values, opts.HighThreshold, opts.LowThreshold))
		case model.QuestionTypeText:
			textQuestions = append(textQuestions, q)
		default:
			return nil, fmt.Errorf("aggregate %s: %w", q.ID, q.Type.Validate())
		}
	}

	d.Comments = FilterComments(collectComments(responses, textQuestions), opts.Search)
	return d, nil
}

// NumericValues extracts the numeric answers for one question. Absent, nil,
// boolean and non-numeric values are skipped.
func NumericValues(responses []*model.Response, questionID string) []float64 {
	values := make([]float64, 0, len(responses))
	for _, r := range responses {
		raw, ok := r.Answer(questionID)
		if !ok {
			continue
		}
		if f, ok := toNumber(raw); ok {
			values = append(values, f)
		}
	}
	return values
}

// RatingSummary computes the statistic bundle for one rating question.
func RatingSummary(q model.Question, values []float64, high, low int) model.RatingStats {
	scaleMax := q.EffectiveScaleMax()
	return model.RatingStats{
		QuestionID: q.ID,
		Text:       q.Text,
		ScaleMax:   scaleMax,
		Count:      len(values),
		Average:    Average(values),
		Median:     Median(values),
		Mode:       Mode(values),
		HighShare:  Share(values, func(v float64) bool { return v >= float64(high) }),
		LowShare:   Share(values, func(v float64) bool { return v <= float64(low) }),
		Histogram:  Histogram(values, scaleMax),
	}
}

// Average returns the mean with two decimals, or NoData.
func Average(values []float64) string {
	mean, err := stats.Mean(values)
	if err != nil {
		return model.NoData
	}
	return strconv.FormatFloat(mean, 'f', 2, 64)
}

// Median returns the middle value (mean of the middle two for even counts)
// with two decimals, or NoData.
func Median(values []float64) string {
	m, err := stats.Median(values)
	if err != nil {
		return model.NoData
	}
	return strconv.FormatFloat(m, 'f', 2, 64)
}

// Mode returns the most frequent value; ties go to the smaller value.
func Mode(values []float64) model.ModeStat {
	if len(values) == 0 {
		return model.ModeStat{Value: model.NoData}
	}
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := math.Inf(1), 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return model.ModeStat{
		Value: strconv.FormatFloat(best, 'f', -1, 64),
		Count: bestCount,
	}
}

// Share returns the percentage of values matching pred with one decimal and
// a percent sign, or NoData.
func Share(values []float64, pred func(float64) bool) string {
	if len(values) == 0 {
		return model.NoData
	}
	matched := 0
	for _, v := range values {
		if pred(v) {
			matched++
		}
	}
	pct := float64(matched) / float64(len(values)) * 100
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// Histogram counts integer values 1..scaleMax. Other values are excluded.
// Width is relative to the tallest bar.
func Histogram(values []float64, scaleMax int) []model.HistogramBar {
	bars := make([]model.HistogramBar, scaleMax)
	for i := range bars {
		bars[i].Label = i + 1
	}
	for _, v := range values {
		if v != math.Trunc(v) || v < 1 || v > float64(scaleMax) {
			continue
		}
		bars[int(v)-1].Count++
	}

	maxCount := 0
	for _, b := range bars {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount > 0 {
		for i := range bars {
			bars[i].Width = float64(bars[i].Count) / float64(maxCount) * 100
		}
	}
	return bars
}

func collectComments(responses []*model.Response, textQuestions []model.Question) []model.Comment {
	comments := []model.Comment{}
	for _, r := range responses {
		for _, q := range textQuestions {
			raw, ok := r.Answer(q.ID)
			if !ok {
				continue
			}
			text, ok := raw.(string)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			c := model.Comment{
				ResponseID: r.ID,
				QuestionID: q.ID,
				Text:       text,
			}
			if !r.CreatedAt.IsZero() {
				t := r.CreatedAt
				c.CreatedAt = &t
			}
			comments = append(comments, c)
		}
	}
	return comments
}

// FilterComments keeps comments containing term, compared with Unicode case
// folding. A blank term keeps everything.
func FilterComments(comments []model.Comment, term string) []model.Comment {
	term = strings.TrimSpace(term)
	if term == "" {
		return comments
	}
	fold := cases.Fold()
	needle := fold.String(term)

	out := []model.Comment{}
	for _, c := range comments {
		if strings.Contains(fold.String(c.Text), needle) {
			out = append(out, c)
		}
	}
	return out
}
