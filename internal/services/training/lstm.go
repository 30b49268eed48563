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

// Network shape: LSTM(64, sequences) -> dropout -> LSTM(32) -> dropout
// -> Dense(16, relu) -> Dense(1), trained with Adam on MSE.
const (
	lstmHidden1   = 64
	lstmHidden2   = 32
	lstmDense     = 16
	lstmDropout   = 0.2
	lstmBatchSize = 64
	lstmPatience  = 5
)

// LSTMLayer holds one recurrent layer's gate parameters. Exported fields
// so fitted networks persist via gob.
type LSTMLayer struct {
	InputSize  int
	HiddenSize int

	// Input, recurrent, and bias parameters per gate
	// (i = input, f = forget, o = output, g = candidate).
	Wi, Wf, Wo, Wg [][]float64
	Ui, Uf, Uo, Ug [][]float64
	Bi, Bf, Bo, Bg []float64
}

// LSTMNetwork is the full sequence model.
type LSTMNetwork struct {
	Lookback int
	L1       *LSTMLayer
	L2       *LSTMLayer
	W1       [][]float64 // dense hidden
	B1       []float64
	W2       []float64 // output
	B2       float64
}

func newLSTMLayer(rng *rand.Rand, inputSize, hiddenSize int) *LSTMLayer {
	l := &LSTMLayer{InputSize: inputSize, HiddenSize: hiddenSize}
	l.Wi = glorot(rng, hiddenSize, inputSize)
	l.Wf = glorot(rng, hiddenSize, inputSize)
	l.Wo = glorot(rng, hiddenSize, inputSize)
	l.Wg = glorot(rng, hiddenSize, inputSize)
	l.Ui = glorot(rng, hiddenSize, hiddenSize)
	l.Uf = glorot(rng, hiddenSize, hiddenSize)
	l.Uo = glorot(rng, hiddenSize, hiddenSize)
	l.Ug = glorot(rng, hiddenSize, hiddenSize)
	l.Bi = make([]float64, hiddenSize)
	l.Bf = ones(hiddenSize) // unit forget bias stabilizes early training
	l.Bo = make([]float64, hiddenSize)
	l.Bg = make([]float64, hiddenSize)
	return l
}

func zeroLSTMLayer(inputSize, hiddenSize int) *LSTMLayer {
	l := &LSTMLayer{InputSize: inputSize, HiddenSize: hiddenSize}
	l.Wi = zeros(hiddenSize, inputSize)
	l.Wf = zeros(hiddenSize, inputSize)
	l.Wo = zeros(hiddenSize, inputSize)
	l.Wg = zeros(hiddenSize, inputSize)
	l.Ui = zeros(hiddenSize, hiddenSize)
	l.Uf = zeros(hiddenSize, hiddenSize)
	l.Uo = zeros(hiddenSize, hiddenSize)
	l.Ug = zeros(hiddenSize, hiddenSize)
	l.Bi = make([]float64, hiddenSize)
	l.Bf = make([]float64, hiddenSize)
	l.Bo = make([]float64, hiddenSize)
	l.Bg = make([]float64, hiddenSize)
	return l
}

// NewLSTMNetwork builds an untrained network for the given lookback.
func NewLSTMNetwork(rng *rand.Rand, lookback int) *LSTMNetwork {
	n := &LSTMNetwork{Lookback: lookback}
	n.L1 = newLSTMLayer(rng, 1, lstmHidden1)
	n.L2 = newLSTMLayer(rng, lstmHidden1, lstmHidden2)
	n.W1 = glorot(rng, lstmDense, lstmHidden2)
	n.B1 = make([]float64, lstmDense)
	n.W2 = glorotVec(rng, lstmDense)
	n.B2 = 0
	return n
}

func zeroLSTMNetwork(lookback int) *LSTMNetwork {
	n := &LSTMNetwork{Lookback: lookback}
	n.L1 = zeroLSTMLayer(1, lstmHidden1)
	n.L2 = zeroLSTMLayer(lstmHidden1, lstmHidden2)
	n.W1 = zeros(lstmDense, lstmHidden2)
	n.B1 = make([]float64, lstmDense)
	n.W2 = make([]float64, lstmDense)
	return n
}

// paramPtrs enumerates every parameter in a stable order shared between
// a network and its same-shaped gradient accumulator.
func (n *LSTMNetwork) paramPtrs() []*float64 {
	var out []*float64
	for _, l := range []*LSTMLayer{n.L1, n.L2} {
		for _, m := range [][][]float64{l.Wi, l.Wf, l.Wo, l.Wg, l.Ui, l.Uf, l.Uo, l.Ug} {
			for i := range m {
				for j := range m[i] {
					out = append(out, &m[i][j])
				}
			}
		}
		for _, b := range [][]float64{l.Bi, l.Bf, l.Bo, l.Bg} {
			for i := range b {
				out = append(out, &b[i])
			}
		}
	}
	for i := range n.W1 {
		for j := range n.W1[i] {
			out = append(out, &n.W1[i][j])
		}
	}
	for i := range n.B1 {
		out = append(out, &n.B1[i])
	}
	for i := range n.W2 {
		out = append(out, &n.W2[i])
	}
	out = append(out, &n.B2)
	return out
}

func (n *LSTMNetwork) clone() *LSTMNetwork {
	dst := zeroLSTMNetwork(n.Lookback)
	src := n.paramPtrs()
	ptrs := dst.paramPtrs()
	for i := range src {
		*ptrs[i] = *src[i]
	}
	return dst
}

func (n *LSTMNetwork) zeroParams() {
	for _, p := range n.paramPtrs() {
		*p = 0
	}
}

// lstmCache holds one timestep's activations for backpropagation.
type lstmCache struct {
	x, hPrev, cPrev        []float64
	i, f, o, g, c, tanhC, h []float64
}

func (l *LSTMLayer) step(x, hPrev, cPrev []float64) lstmCache {
	h := l.HiddenSize
	cache := lstmCache{
		x: x, hPrev: hPrev, cPrev: cPrev,
		i: make([]float64, h), f: make([]float64, h), o: make([]float64, h),
		g: make([]float64, h), c: make([]float64, h), tanhC: make([]float64, h),
		h: make([]float64, h),
	}
	for k := 0; k < h; k++ {
		cache.i[k] = sigmoid(dot(l.Wi[k], x) + dot(l.Ui[k], hPrev) + l.Bi[k])
		cache.f[k] = sigmoid(dot(l.Wf[k], x) + dot(l.Uf[k], hPrev) + l.Bf[k])
		cache.o[k] = sigmoid(dot(l.Wo[k], x) + dot(l.Uo[k], hPrev) + l.Bo[k])
		cache.g[k] = math.Tanh(dot(l.Wg[k], x) + dot(l.Ug[k], hPrev) + l.Bg[k])
		cache.c[k] = cache.f[k]*cPrev[k] + cache.i[k]*cache.g[k]
		cache.tanhC[k] = math.Tanh(cache.c[k])
		cache.h[k] = cache.o[k] * cache.tanhC[k]
	}
	return cache
}

// forward runs the layer over a sequence, returning per-step caches.
func (l *LSTMLayer) forward(inputs [][]float64) []lstmCache {
	h := make([]float64, l.HiddenSize)
	c := make([]float64, l.HiddenSize)
	caches := make([]lstmCache, len(inputs))
	for t, x := range inputs {
		caches[t] = l.step(x, h, c)
		h, c = caches[t].h, caches[t].c
	}
	return caches
}

// backward runs truncated BPTT over the cached sequence. dhExt[t] is the
// externally injected gradient at step t (nil when none); gradients
// accumulate into g and the per-step input gradients are returned.
func (l *LSTMLayer) backward(caches []lstmCache, dhExt [][]float64, g *LSTMLayer) [][]float64 {
	hs := l.HiddenSize
	T := len(caches)
	dx := make([][]float64, T)

	dhNext := make([]float64, hs)
	dcNext := make([]float64, hs)
	for t := T - 1; t >= 0; t-- {
		cache := &caches[t]
		dh := make([]float64, hs)
		copy(dh, dhNext)
		if dhExt != nil && dhExt[t] != nil {
			for k := range dh {
				dh[k] += dhExt[t][k]
			}
		}

		dxT := make([]float64, l.InputSize)
		dhPrev := make([]float64, hs)
		dcPrev := make([]float64, hs)
		for k := 0; k < hs; k++ {
			dc := dh[k]*cache.o[k]*(1-cache.tanhC[k]*cache.tanhC[k]) + dcNext[k]

			doPre := dh[k] * cache.tanhC[k] * cache.o[k] * (1 - cache.o[k])
			diPre := dc * cache.g[k] * cache.i[k] * (1 - cache.i[k])
			dgPre := dc * cache.i[k] * (1 - cache.g[k]*cache.g[k])
			dfPre := dc * cache.cPrev[k] * cache.f[k] * (1 - cache.f[k])
			dcPrev[k] = dc * cache.f[k]

			accumulate(g.Wi[k], g.Ui[k], &g.Bi[k], diPre, cache.x, cache.hPrev)
			accumulate(g.Wf[k], g.Uf[k], &g.Bf[k], dfPre, cache.x, cache.hPrev)
			accumulate(g.Wo[k], g.Uo[k], &g.Bo[k], doPre, cache.x, cache.hPrev)
			accumulate(g.Wg[k], g.Ug[k], &g.Bg[k], dgPre, cache.x, cache.hPrev)

			for j := range dxT {
				dxT[j] += l.Wi[k][j]*diPre + l.Wf[k][j]*dfPre + l.Wo[k][j]*doPre + l.Wg[k][j]*dgPre
			}
			for j := range dhPrev {
				dhPrev[j] += l.Ui[k][j]*diPre + l.Uf[k][j]*dfPre + l.Uo[k][j]*doPre + l.Ug[k][j]*dgPre
			}
		}

		dx[t] = dxT
		dhNext, dcNext = dhPrev, dcPrev
	}
	return dx
}

func accumulate(dW []float64, dU []float64, dB *float64, delta float64, x, hPrev []float64) {
	for j := range dW {
		dW[j] += delta * x[j]
	}
	for j := range dU {
		dU[j] += delta * hPrev[j]
	}
	*dB += delta
}

// Predict runs one scaled lookback window through the network without
// dropout.
func (n *LSTMNetwork) Predict(window []float64) float64 {
	out, _ := n.forward(window, nil, nil)
	return out
}

// forward returns the network output; when masks are non-nil they apply
// inverted dropout and the full caches are returned for backprop.
func (n *LSTMNetwork) forward(window []float64, mask1 [][]float64, mask2 []float64) (float64, *netCaches) {
	T := len(window)
	inputs1 := make([][]float64, T)
	for t, v := range window {
		inputs1[t] = []float64{v}
	}

	caches1 := n.L1.forward(inputs1)
	inputs2 := make([][]float64, T)
	for t := range caches1 {
		h := caches1[t].h
		if mask1 != nil {
			h = mulVec(h, mask1[t])
		}
		inputs2[t] = h
	}

	caches2 := n.L2.forward(inputs2)
	h2 := caches2[T-1].h
	if mask2 != nil {
		h2 = mulVec(h2, mask2)
	}

	z1 := make([]float64, lstmDense)
	a1 := make([]float64, lstmDense)
	for k := 0; k < lstmDense; k++ {
		z1[k] = dot(n.W1[k], h2) + n.B1[k]
		a1[k] = math.Max(0, z1[k])
	}
	out := dot(n.W2, a1) + n.B2

	return out, &netCaches{caches1: caches1, caches2: caches2, h2: h2, z1: z1, a1: a1}
}

type netCaches struct {
	caches1 []lstmCache
	caches2 []lstmCache
	h2      []float64
	z1      []float64
	a1      []float64
}

// backward propagates dOut through the whole network, accumulating
// parameter gradients into g.
func (n *LSTMNetwork) backward(c *netCaches, dOut float64, mask1 [][]float64, mask2 []float64, g *LSTMNetwork) {
	dh2 := make([]float64, lstmHidden2)
	for k := 0; k < lstmDense; k++ {
		g.W2[k] += dOut * c.a1[k]
		dz := dOut * n.W2[k]
		if c.z1[k] <= 0 {
			dz = 0
		}
		for j := range dh2 {
			g.W1[k][j] += dz * c.h2[j]
			dh2[j] += dz * n.W1[k][j]
		}
		g.B1[k] += dz
	}
	g.B2 += dOut

	if mask2 != nil {
		dh2 = mulVec(dh2, mask2)
	}

	T := len(c.caches2)
	dhExt2 := make([][]float64, T)
	dhExt2[T-1] = dh2
	dx2 := n.L2.backward(c.caches2, dhExt2, g.L2)

	if mask1 != nil {
		for t := range dx2 {
			dx2[t] = mulVec(dx2[t], mask1[t])
		}
	}
	n.L1.backward(c.caches1, dx2, g.L1)
}

// adam is the Adam optimizer over the network's flattened parameters.
type adam struct {
	params []*float64
	grads  []*float64
	m, v   []float64
	lr     float64
	t      int
}

func newAdam(net, gradNet *LSTMNetwork, lr float64) *adam {
	params := net.paramPtrs()
	grads := gradNet.paramPtrs()
	return &adam{
		params: params,
		grads:  grads,
		m:      make([]float64, len(params)),
		v:      make([]float64, len(params)),
		lr:     lr,
	}
}

func (a *adam) step(scale float64) {
	const (
		beta1 = 0.9
		beta2 = 0.999
		eps   = 1e-8
	)
	a.t++
	bc1 := 1 - math.Pow(beta1, float64(a.t))
	bc2 := 1 - math.Pow(beta2, float64(a.t))
	for i, p := range a.params {
		grad := *a.grads[i] * scale
		a.m[i] = beta1*a.m[i] + (1-beta1)*grad
		a.v[i] = beta2*a.v[i] + (1-beta2)*grad*grad
		mHat := a.m[i] / bc1
		vHat := a.v[i] / bc2
		*p -= a.lr * mHat / (math.Sqrt(vHat) + eps)
	}
}

func glorot(rng *rand.Rand, rows, cols int) [][]float64 {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return m
}

func glorotVec(rng *rand.Rand, n int) []float64 {
	limit := math.Sqrt(6.0 / float64(n+1))
	v := make([]float64, n)
	for i := range v {
		v[i] = (rng.Float64()*2 - 1) * limit
	}
	return v
}

func zeros(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func mulVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

func dropoutMask(rng *rand.Rand, n int, rate float64) []float64 {
	mask := make([]float64, n)
	keep := 1 - rate
	for i := range mask {
		if rng.Float64() < keep {
			mask[i] = 1 / keep
		}
	}
	return mask
}

// LSTMArtifact bundles the fitted network with the fitted scaler and the
// seed window of the last Lookback scaled daily totals, so inference
// needs no data access.
type LSTMArtifact struct {
	Net        *LSTMNetwork
	Scaler     *MinMaxScaler
	Lookback   int
	SeedWindow []float64
}

func (a *LSTMArtifact) Kind() models.ModelKind { return models.ModelLSTM }

// PredictHorizon generates recursively: each step predicts the next
// scaled value from the current buffer, then appends the raw predicted
// scaled value so later steps depend on earlier predictions. The buffer
// window stays fixed at Lookback.
func (a *LSTMArtifact) PredictHorizon(_ time.Time, days int) ([]float64, error) {
	if a.Net == nil || a.Scaler == nil || len(a.SeedWindow) < a.Lookback {
		return nil, fmt.Errorf("lstm artifact is incomplete")
	}

	buf := append([]float64(nil), a.SeedWindow...)
	out := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		window := buf[len(buf)-a.Lookback:]
		predScaled := a.Net.Predict(window)
		out = append(out, a.Scaler.InverseOne(predScaled))
		buf = append(buf, predScaled)
	}
	return out, nil
}

// LSTMTrainer fits the sequence model on scaled daily totals.
type LSTMTrainer struct {
	logger      *logger.Logger
	holdoutDays int
	lookback    int
	epochs      int
	seed        int64
}

// NewLSTMTrainer creates the sequence trainer.
func NewLSTMTrainer(l *logger.Logger, holdoutDays, lookback, epochs int) *LSTMTrainer {
	if holdoutDays <= 0 {
		holdoutDays = 90
	}
	if lookback <= 0 {
		lookback = 30
	}
	if epochs <= 0 {
		epochs = 30
	}
	return &LSTMTrainer{logger: l, holdoutDays: holdoutDays, lookback: lookback, epochs: epochs, seed: 42}
}

func (t *LSTMTrainer) Name() models.ModelKind { return models.ModelLSTM }

// Train scales the daily total series to [0, 1], builds sliding lookback
// windows, reserves the trailing holdout windows for validation, and
// trains with early stopping on validation loss (best weights restored).
func (t *LSTMTrainer) Train(ctx context.Context, table []models.FeatureRow) (*models.TrainResult, error) {
	_, totals := DailyTotals(table)
	if len(totals) <= t.lookback+t.holdoutDays {
		return nil, fmt.Errorf("series too short for lstm: %d days", len(totals))
	}

	scaler := &MinMaxScaler{}
	if err := scaler.Fit(totals); err != nil {
		return nil, err
	}
	scaled := scaler.Transform(totals)

	var windows [][]float64
	var targets []float64
	for i := t.lookback; i < len(scaled); i++ {
		windows = append(windows, scaled[i-t.lookback:i])
		targets = append(targets, scaled[i])
	}

	split := len(windows) - t.holdoutDays
	trainX, testX := windows[:split], windows[split:]
	trainY, testY := targets[:split], targets[split:]

	t.logger.Info("training lstm",
		logger.Int("train_windows", len(trainX)),
		logger.Int("test_windows", len(testX)),
		logger.Int("lookback", t.lookback),
	)

	rng := rand.New(rand.NewSource(t.seed))
	net := NewLSTMNetwork(rng, t.lookback)
	if err := t.fit(ctx, net, rng, trainX, trainY, testX, testY); err != nil {
		return nil, fmt.Errorf("lstm fit: %w", err)
	}

	predScaled := make([]float64, len(testX))
	for i, w := range testX {
		predScaled[i] = net.Predict(w)
	}
	preds := clampNonNegative(scaler.Inverse(predScaled))
	actual := scaler.Inverse(testY)

	metrics := ComputeMetrics(actual, preds)
	t.logger.Info("lstm trained",
		logger.Float64("rmse", metrics.RMSE),
		logger.Float64("mae", metrics.MAE),
		logger.Float64("mape", metrics.MAPE),
	)

	artifact := &LSTMArtifact{
		Net:        net,
		Scaler:     scaler,
		Lookback:   t.lookback,
		SeedWindow: append([]float64(nil), scaled[len(scaled)-t.lookback:]...),
	}
	return &models.TrainResult{
		Name:         models.ModelLSTM,
		Metrics:      metrics,
		Artifact:     artifact,
		ForecastTest: preds,
		ActualTest:   actual,
	}, nil
}

func (t *LSTMTrainer) fit(ctx context.Context, net *LSTMNetwork, rng *rand.Rand,
	trainX [][]float64, trainY []float64, valX [][]float64, valY []float64) error {

	gradNet := zeroLSTMNetwork(t.lookback)
	opt := newAdam(net, gradNet, 0.001)

	bestLoss := math.Inf(1)
	var bestNet *LSTMNetwork
	sinceBest := 0

	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < t.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += lstmBatchSize {
			end := start + lstmBatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			gradNet.zeroParams()
			for _, idx := range batch {
				mask1 := make([][]float64, t.lookback)
				for s := range mask1 {
					mask1[s] = dropoutMask(rng, lstmHidden1, lstmDropout)
				}
				mask2 := dropoutMask(rng, lstmHidden2, lstmDropout)

				out, caches := net.forward(trainX[idx], mask1, mask2)
				dOut := 2 * (out - trainY[idx])
				net.backward(caches, dOut, mask1, mask2, gradNet)
			}
			opt.step(1 / float64(len(batch)))
		}

		valLoss := 0.0
		for i, w := range valX {
			d := net.Predict(w) - valY[i]
			valLoss += d * d
		}
		valLoss /= float64(len(valX))

		t.logger.Debug("lstm epoch",
			logger.Int("epoch", epoch+1),
			logger.Float64("val_loss", valLoss),
		)

		if valLoss < bestLoss {
			bestLoss = valLoss
			bestNet = net.clone()
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= lstmPatience {
				break
			}
		}
	}

	if bestNet != nil {
		src := bestNet.paramPtrs()
		dst := net.paramPtrs()
		for i := range src {
			*dst[i] = *src[i]
		}
	}
	return nil
}
