// Package defense provides the simulator, replay buffer, and trainable
// agents backing the cyber-defense strategy engine.
package defense

import (
	"fmt"
	"math"
	"math/rand"
)

// linear is a fully connected layer with a flat row-major weight slab.
type linear struct {
	in, out int
	w       []float64 // w[i*out+o]
	b       []float64
}

func newLinear(rng *rand.Rand, in, out int) linear {
	l := linear{
		in:  in,
		out: out,
		w:   make([]float64, in*out),
		b:   make([]float64, out),
	}
	scale := math.Sqrt(2.0 / float64(in))
	for i := range l.w {
		l.w[i] = (rng.Float64() - 0.5) * scale
	}
	return l
}

func (l *linear) forward(x []float64) []float64 {
	y := make([]float64, l.out)
	for o := 0; o < l.out; o++ {
		sum := l.b[o]
		for i := 0; i < l.in && i < len(x); i++ {
			sum += x[i] * l.w[i*l.out+o]
		}
		y[o] = sum
	}
	return y
}

// backward accumulates weight gradients for upstream gradient dy and returns
// the gradient with respect to the layer input.
func (l *linear) backward(x, dy []float64, g *linearGrad) []float64 {
	dx := make([]float64, l.in)
	for o := 0; o < l.out; o++ {
		g.b[o] += dy[o]
		for i := 0; i < l.in && i < len(x); i++ {
			g.w[i*l.out+o] += x[i] * dy[o]
			dx[i] += l.w[i*l.out+o] * dy[o]
		}
	}
	return dx
}

func (l *linear) clone() linear {
	c := linear{in: l.in, out: l.out, w: make([]float64, len(l.w)), b: make([]float64, len(l.b))}
	copy(c.w, l.w)
	copy(c.b, l.b)
	return c
}

// linearGrad holds accumulated gradients and momentum for one layer.
type linearGrad struct {
	w []float64
	b []float64
}

func newLinearGrad(l *linear) linearGrad {
	return linearGrad{w: make([]float64, len(l.w)), b: make([]float64, len(l.b))}
}

func (g *linearGrad) zero() {
	for i := range g.w {
		g.w[i] = 0
	}
	for i := range g.b {
		g.b[i] = 0
	}
}

// applyMomentum performs one momentum update on the layer. Gradients are
// scaled by lr and clipped per weight; sign picks gradient ascent (+1) or
// descent (-1).
func applyMomentum(l *linear, g, m *linearGrad, lr, maxNorm, sign float64) {
	const beta = 0.9
	for i := range l.w {
		grad := clipTo(g.w[i], maxNorm)
		m.w[i] = beta*m.w[i] + (1-beta)*grad
		l.w[i] += sign * lr * m.w[i]
	}
	for i := range l.b {
		grad := clipTo(g.b[i], maxNorm)
		m.b[i] = beta*m.b[i] + (1-beta)*grad
		l.b[i] += sign * lr * m.b[i]
	}
}

// dropoutMask returns an inverted dropout mask. A nil mask means dropout is
// disabled (inference).
func dropoutMask(rng *rand.Rand, n int, rate float64) []float64 {
	if rate <= 0 {
		return nil
	}
	mask := make([]float64, n)
	keep := 1.0 - rate
	for i := range mask {
		if rng.Float64() < keep {
			mask[i] = 1.0 / keep
		}
	}
	return mask
}

func applyMask(v, mask []float64) {
	if mask == nil {
		return
	}
	for i := range v {
		v[i] *= mask[i]
	}
}

func reluInPlace(v []float64) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0
		}
	}
}

// reluBackward zeroes upstream gradient where the pre-activation was negative.
func reluBackward(dy, pre []float64) {
	for i := range dy {
		if pre[i] <= 0 {
			dy[i] = 0
		}
	}
}

func argmax(v []float64) int {
	maxIdx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			maxIdx = i
		}
	}
	return maxIdx
}

func maxOf(v []float64) float64 {
	maxVal := v[0]
	for _, x := range v[1:] {
		if x > maxVal {
			maxVal = x
		}
	}
	return maxVal
}

func meanStd(v []float64) (mean, std float64) {
	if len(v) == 0 {
		return 0, 1
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	for _, x := range v {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(v)))
	return mean, std
}

func clipTo(v, limit float64) float64 {
	return math.Max(math.Min(v, limit), -limit)
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// clipAction returns a copy of the action clipped to [-1, 1]. Short vectors
// are zero-padded, long ones truncated; out-of-range values are a caller
// error corrected silently to keep the simulator stable.
func clipAction(action []float64) []float64 {
	clipped := make([]float64, actionDim)
	for i := 0; i < actionDim && i < len(action); i++ {
		v := action[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		clipped[i] = clipTo(v, 1)
	}
	return clipped
}

func finiteVec(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func copyVec(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

// snapshot/restore helpers for checkpointing.

func snapshotLayer(w map[string][]float64, name string, l *linear) {
	w[name+".w"] = copyVec(l.w)
	w[name+".b"] = copyVec(l.b)
}

func restoreLayer(w map[string][]float64, name string, l *linear) error {
	wv, ok := w[name+".w"]
	if !ok || len(wv) != len(l.w) {
		return fmt.Errorf("layer %s: weight slab missing or wrong size", name)
	}
	bv, ok := w[name+".b"]
	if !ok || len(bv) != len(l.b) {
		return fmt.Errorf("layer %s: bias slab missing or wrong size", name)
	}
	copy(l.w, wv)
	copy(l.b, bv)
	return nil
}

func snapshotGrad(w map[string][]float64, name string, g *linearGrad) {
	w[name+".w"] = copyVec(g.w)
	w[name+".b"] = copyVec(g.b)
}

func restoreGrad(w map[string][]float64, name string, g *linearGrad) {
	if v, ok := w[name+".w"]; ok && len(v) == len(g.w) {
		copy(g.w, v)
	}
	if v, ok := w[name+".b"]; ok && len(v) == len(g.b) {
		copy(g.b, v)
	}
}
