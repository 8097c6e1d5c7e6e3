package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
)

// quantized is the set of numeric types a network layer's weights may be
// stored as on disk.
type quantized interface {
	~int8 | ~int16 | ~int32 | ~float32
}

// sparseLayer is the input layer (INPUT -> hidden), read once per forward
// pass and evaluated only over the position's active feature indices since
// the input is overwhelmingly zero.
type sparseLayer[W quantized, B quantized] struct {
	inputs  int
	outputs int
	weights []W // row-major [inputs][outputs]
	biases  []B
}

func newSparseLayer[W quantized, B quantized](inputs, outputs int) *sparseLayer[W, B] {
	return &sparseLayer[W, B]{
		inputs:  inputs,
		outputs: outputs,
		weights: make([]W, inputs*outputs),
		biases:  make([]B, outputs),
	}
}

func (l *sparseLayer[W, B]) read(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, l.weights); err != nil {
		return fmt.Errorf("read layer weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, l.biases); err != nil {
		return fmt.Errorf("read layer biases: %w", err)
	}
	return nil
}

// accumulate adds the weight row for each active feature to an int32
// accumulator seeded with the layer's biases.
func (l *sparseLayer[W, B]) accumulate(active []int32) []int32 {
	acc := make([]int32, l.outputs)
	for i, b := range l.biases {
		acc[i] = int32(b)
	}
	for _, f := range active {
		row := l.weights[int(f)*l.outputs : int(f)*l.outputs+l.outputs]
		for i, w := range row {
			acc[i] += int32(w)
		}
	}
	return acc
}

// denseLayer is a fully connected hidden layer (weights dense, small side).
type denseLayer[W quantized, B quantized] struct {
	inputs  int
	outputs int
	weights []W // row-major [outputs][inputs] ("transposed": one row per output neuron)
	biases  []B
}

func newDenseLayer[W quantized, B quantized](inputs, outputs int) *denseLayer[W, B] {
	return &denseLayer[W, B]{
		inputs:  inputs,
		outputs: outputs,
		weights: make([]W, inputs*outputs),
		biases:  make([]B, outputs),
	}
}

func (l *denseLayer[W, B]) read(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, l.weights); err != nil {
		return fmt.Errorf("read layer weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, l.biases); err != nil {
		return fmt.Errorf("read layer biases: %w", err)
	}
	return nil
}

// clampPairwiseMul implements the shared "squared clipped activation" used
// at the output of every L0: the accumulator is split into two halves,
// each half clamped to [0, limit], and the halves multiplied pairwise. This
// is algebraically (clamp(x))^2 when both halves come from the same neuron
// pairing convention the networks were trained with.
func clampPairwiseMul(acc []int32, limit int32) []int32 {
	half := len(acc) / 2
	out := make([]int32, half)
	for i := 0; i < half; i++ {
		a := clampInt32(acc[i], 0, limit)
		b := clampInt32(acc[i+half], 0, limit)
		out[i] = a * b
	}
	return out
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
