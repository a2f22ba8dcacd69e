package regression

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// signatureBytes is the size of a secp256k1 signature appended to each
// transaction when the scan trimmed signatures off before measuring.
const signatureBytes = 68

// ModelSet is the family of predictors compared by the evaluation report.
type ModelSet struct {
	Full         Model // best ~ fastlz + zeroes + nonZeroes
	Combined     Model // best ~ fastlz + txSize
	FastLZOnly   Model // best ~ fastlz
	Naive        Model // best ~ zeroes + nonZeroes
	FastLZScalar float64
	NaiveScalar  float64
}

// FitModelSet fits every model variant on the given training window.
func FitModelSet(d Dataset) (ModelSet, error) {
	var set ModelSet
	var err error
	if set.Full, err = d.FitFull(); err != nil {
		return ModelSet{}, fmt.Errorf("fitting full model: %w", err)
	}
	if set.Combined, err = d.FitCombined(); err != nil {
		return ModelSet{}, fmt.Errorf("fitting combined model: %w", err)
	}
	if set.FastLZOnly, err = d.FitFastLZ(); err != nil {
		return ModelSet{}, fmt.Errorf("fitting fastlz model: %w", err)
	}
	if set.Naive, err = d.FitNaive(); err != nil {
		return ModelSet{}, fmt.Errorf("fitting naive model: %w", err)
	}
	if set.FastLZScalar, err = d.FastLZScalar(); err != nil {
		return ModelSet{}, err
	}
	if set.NaiveScalar, err = d.NaiveScalar(); err != nil {
		return ModelSet{}, err
	}
	return set, nil
}

// ModelScore is one model's accuracy on one bucket.
type ModelScore struct {
	Name  string
	RMSE  float64
	MAE   float64
	Total float64
}

// GroupReport scores every model in a set against one time bucket.
type GroupReport struct {
	Label   string
	Samples int
	Scores  []ModelScore
}

// EvaluateGroups scores the fitted models against each bucket. When the
// scan omitted signatures, the fixed signature size is added back to each
// predicted total so totals stay comparable with raw batch sizes.
func EvaluateGroups(groups []Group, set ModelSet, signatureOmitted bool) []GroupReport {
	reports := make([]GroupReport, 0, len(groups))
	for _, g := range groups {
		d := NewDataset(g.Records)

		score := func(name string, predicted []float64) ModelScore {
			m := Evaluate(predicted, d.Best)
			var total float64
			for _, p := range predicted {
				total += p
			}
			if signatureOmitted {
				total += signatureBytes * float64(d.Len())
			}
			return ModelScore{Name: name, RMSE: m.RMSE, MAE: m.MAE, Total: total}
		}

		scalarPredict := func(scalar float64, col []float64) []float64 {
			out := make([]float64, len(col))
			for i, v := range col {
				out[i] = scalar * v
			}
			return out
		}
		weighted := make([]float64, d.Len())
		for i := range weighted {
			weighted[i] = (d.Zeroes[i]*4 + d.NonZeroes[i]*16) / 16
		}

		reports = append(reports, GroupReport{
			Label:   g.Label,
			Samples: d.Len(),
			Scores: []ModelScore{
				score("fastlz_zeroes_ones", set.Full.PredictAll(d.FullFeatures())),
				score("fastlz_txsize", set.Combined.PredictAll(d.CombinedFeatures())),
				score("fastlz_only", set.FastLZOnly.PredictAll(d.FastLZFeatures())),
				score("fastlz_no_intercept", scalarPredict(set.FastLZScalar, d.FastLZ)),
				score("naive_with_intercept", set.Naive.PredictAll(d.NaiveFeatures())),
				score("naive_no_intercept", scalarPredict(set.NaiveScalar, weighted)),
			},
		})
	}
	return reports
}

// WriteReportCSV writes the evaluation as a long-format CSV, one row per
// bucket and model.
func WriteReportCSV(path string, reports []GroupReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"bucket", "samples", "model", "rmse", "mae", "predicted_total"}); err != nil {
		return err
	}
	for _, report := range reports {
		for _, score := range report.Scores {
			row := []string{
				report.Label,
				strconv.Itoa(report.Samples),
				score.Name,
				strconv.FormatFloat(score.RMSE, 'f', 4, 64),
				strconv.FormatFloat(score.MAE, 'f', 4, 64),
				strconv.FormatFloat(score.Total, 'f', 0, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// BucketFit is an independent per-bucket fastlz fit, the monthly drift view.
type BucketFit struct {
	Label   string
	Samples int
	Model   Model
	Metrics Metrics
}

// FitPerGroup fits the fastlz-only model separately inside each bucket.
// Buckets with too few samples to determine a line are skipped.
func FitPerGroup(groups []Group) ([]BucketFit, error) {
	fits := make([]BucketFit, 0, len(groups))
	for _, g := range groups {
		if len(g.Records) < 2 {
			continue
		}
		d := NewDataset(g.Records)
		model, err := d.FitFastLZ()
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", g.Label, err)
		}
		fits = append(fits, BucketFit{
			Label:   g.Label,
			Samples: d.Len(),
			Model:   model,
			Metrics: Evaluate(model.PredictAll(d.FastLZFeatures()), d.Best),
		})
	}
	return fits, nil
}
