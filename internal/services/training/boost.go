package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"
)

// BoostParams configure the gradient-boosted tree ensemble.
type BoostParams struct {
	Rounds              int
	LearningRate        float64
	MaxDepth            int
	MinChildWeight      int
	Subsample           float64
	ColSample           float64
	EarlyStoppingRounds int
	Seed                int64
}

// DefaultBoostParams mirror the tuned regressor configuration.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Rounds:              500,
		LearningRate:        0.05,
		MaxDepth:            8,
		MinChildWeight:      5,
		Subsample:           0.8,
		ColSample:           0.8,
		EarlyStoppingRounds: 30,
		Seed:                42,
	}
}

// BoostModel is a fitted gradient-boosted tree ensemble.
type BoostModel struct {
	BaseScore    float64
	LearningRate float64
	Trees        []*TreeNode
}

// Predict sums the ensemble for one feature vector.
func (m *BoostModel) Predict(x []float64) float64 {
	pred := m.BaseScore
	for _, t := range m.Trees {
		pred += m.LearningRate * t.Predict(x)
	}
	return pred
}

// fitBoost trains the ensemble on (xTrain, yTrain) with early stopping
// driven by RMSE on the held-out set. The returned model is truncated to
// its best validation round.
func fitBoost(ctx context.Context, xTrain [][]float64, yTrain []float64,
	xVal [][]float64, yVal []float64, p BoostParams) (*BoostModel, []float64, error) {

	if len(xTrain) == 0 || len(xTrain) != len(yTrain) {
		return nil, nil, fmt.Errorf("invalid training matrix: %d rows, %d targets", len(xTrain), len(yTrain))
	}
	nFeatures := len(xTrain[0])
	rng := rand.New(rand.NewSource(p.Seed))

	base := mean(yTrain)
	model := &BoostModel{BaseScore: base, LearningRate: p.LearningRate}

	trainPred := make([]float64, len(yTrain))
	valPred := make([]float64, len(yVal))
	for i := range trainPred {
		trainPred[i] = base
	}
	for i := range valPred {
		valPred[i] = base
	}

	residual := make([]float64, len(yTrain))
	bestRMSE := math.Inf(1)
	bestRound := 0
	importanceAcc := make([]float64, nFeatures)

	for round := 0; round < p.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		for i := range residual {
			residual[i] = yTrain[i] - trainPred[i]
		}

		rows := sampleRows(rng, len(xTrain), p.Subsample)
		cols := sampleCols(rng, nFeatures, p.ColSample)

		tree := buildTree(xTrain, residual, rows, 0, &treeParams{
			maxDepth:      p.MaxDepth,
			minLeafSize:   p.MinChildWeight,
			features:      cols,
			importanceAcc: importanceAcc,
		})
		model.Trees = append(model.Trees, tree)

		for i := range xTrain {
			trainPred[i] += p.LearningRate * tree.Predict(xTrain[i])
		}
		for i := range xVal {
			valPred[i] += p.LearningRate * tree.Predict(xVal[i])
		}

		rmse := rmseOf(yVal, valPred)
		if rmse < bestRMSE {
			bestRMSE = rmse
			bestRound = round
		} else if p.EarlyStoppingRounds > 0 && round-bestRound >= p.EarlyStoppingRounds {
			break
		}
	}

	model.Trees = model.Trees[:bestRound+1]
	return model, importanceAcc, nil
}

func sampleRows(rng *rand.Rand, n int, frac float64) []int {
	k := int(float64(n) * frac)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)[:k]
	return perm
}

func sampleCols(rng *rand.Rand, n int, frac float64) []int {
	k := int(float64(n) * frac)
	if k < 1 {
		k = 1
	}
	return rng.Perm(n)[:k]
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func rmseOf(actual, pred []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// BoostArtifact bundles the fitted ensemble with everything inference
// needs: the exact ordered feature list, per-feature importances, and the
// frozen template of the most recent observed row.
type BoostArtifact struct {
	Model       *BoostModel
	FeatureCols []string
	Importance  map[string]float64
	Template    map[string]float64
}

func (a *BoostArtifact) Kind() models.ModelKind { return models.ModelBoost }

// PredictHorizon builds one feature vector per future day by copying the
// template and overriding only the date-derived fields. Weather, lags,
// rolling stats, and category stay frozen at their last observed values.
func (a *BoostArtifact) PredictHorizon(from time.Time, days int) ([]float64, error) {
	if a.Model == nil || len(a.FeatureCols) == 0 {
		return nil, fmt.Errorf("boost artifact is incomplete")
	}

	out := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i)
		vec := models.Vector(models.OverrideDateFeatures(a.Template, date), a.FeatureCols)
		out = append(out, a.Model.Predict(vec))
	}
	return out, nil
}

// BoostTrainer fits the gradient-boosted tree ensemble on the full
// per-item feature table with a strict time split.
type BoostTrainer struct {
	logger      *logger.Logger
	holdoutDays int
	params      BoostParams
}

// NewBoostTrainer creates the tree-ensemble trainer.
func NewBoostTrainer(l *logger.Logger, holdoutDays int, params BoostParams) *BoostTrainer {
	if holdoutDays <= 0 {
		holdoutDays = 90
	}
	if params.Rounds <= 0 {
		params = DefaultBoostParams()
	}
	return &BoostTrainer{logger: l, holdoutDays: holdoutDays, params: params}
}

func (t *BoostTrainer) Name() models.ModelKind { return models.ModelBoost }

// Train splits strictly by date (trailing holdout window), trains with
// early stopping on the held-out loss, and persists the ordered feature
// list plus importances with the model.
func (t *BoostTrainer) Train(ctx context.Context, table []models.FeatureRow) (*models.TrainResult, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("empty training table")
	}

	cols := models.FeatureColumns()

	maxDate := table[0].Date
	for i := range table {
		if table[i].Date.After(maxDate) {
			maxDate = table[i].Date
		}
	}
	splitDate := maxDate.AddDate(0, 0, -t.holdoutDays)

	var xTrain, xTest [][]float64
	var yTrain, yTest []float64
	var template map[string]float64
	templateDate := time.Time{}
	for i := range table {
		row := &table[i]
		fm := row.FeatureMap()
		vec := models.Vector(fm, cols)
		if row.Date.After(splitDate) {
			xTest = append(xTest, vec)
			yTest = append(yTest, row.Sales)
		} else {
			xTrain = append(xTrain, vec)
			yTrain = append(yTrain, row.Sales)
		}
		// Most recent row becomes the frozen inference template.
		if !row.Date.Before(templateDate) {
			templateDate = row.Date
			template = fm
		}
	}
	if len(xTrain) == 0 || len(xTest) == 0 {
		return nil, fmt.Errorf("time split produced empty partition (train=%d test=%d)", len(xTrain), len(xTest))
	}

	t.logger.Info("training boosted trees",
		logger.Int("train_rows", len(xTrain)),
		logger.Int("test_rows", len(xTest)),
		logger.Int("features", len(cols)),
	)

	model, importanceAcc, err := fitBoost(ctx, xTrain, yTrain, xTest, yTest, t.params)
	if err != nil {
		return nil, fmt.Errorf("boost fit: %w", err)
	}

	preds := make([]float64, len(xTest))
	for i := range xTest {
		preds[i] = model.Predict(xTest[i])
	}
	preds = clampNonNegative(preds)
	metrics := ComputeMetrics(yTest, preds)

	importance := normalizeImportance(cols, importanceAcc)
	t.logger.Info("boosted trees trained",
		logger.Int("rounds", len(model.Trees)),
		logger.Float64("rmse", metrics.RMSE),
		logger.Float64("mae", metrics.MAE),
		logger.Float64("mape", metrics.MAPE),
	)

	artifact := &BoostArtifact{
		Model:       model,
		FeatureCols: cols,
		Importance:  importance,
		Template:    template,
	}
	return &models.TrainResult{
		Name:         models.ModelBoost,
		Metrics:      metrics,
		Artifact:     artifact,
		ForecastTest: preds,
		ActualTest:   yTest,
	}, nil
}

func normalizeImportance(cols []string, acc []float64) map[string]float64 {
	total := 0.0
	for _, v := range acc {
		total += v
	}
	out := make(map[string]float64, len(cols))
	for i, c := range cols {
		if total > 0 {
			out[c] = acc[i] / total
		} else {
			out[c] = 0
		}
	}
	return out
}
