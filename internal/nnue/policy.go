package nnue

import (
	"io"
	"math"

	"github.com/kestrelchess/kestrel/internal/board"
)

const (
	policyHidden = 8192
	policyQA     = 128
	policyQB     = 128

	promoPieces = 4  // knight, bishop, rook, queen
	promoCombos = 22 // (from-file, to-file) pairs for a promoting pawn: 8 straight + 14 diagonal
	promos      = promoPieces * promoCombos
	castleSlots = 2
	doublePushSlots = 8
)

// destinations[sq][piece] is the set of squares piece could reach from sq on
// an otherwise empty board, viewed from the perspective of a pawn that
// always advances toward higher ranks (the feature extractor's mirrored
// frame). It fixes, once and for all, how many distinct (piece, from,
// to)-buckets the policy head's output layer has one row per.
var destinations [64][6]board.Bitboard

// offsets[piece][sq] is the running total of destination bits assigned to
// every (p, s) pair that sorts before (piece, sq) in piece-major order.
// offsets[King][64] is therefore the total number of per-square destination
// buckets across all six piece types — the base of the promotion tail.
var offsets [6][65]int

var fromTo int
var numMoveIndices int

func init() {
	for sq := board.A1; sq <= board.H8; sq++ {
		destinations[sq][board.Knight] = board.KnightAttacks(sq)
		destinations[sq][board.Bishop] = board.BishopAttacks(sq, 0)
		destinations[sq][board.Rook] = board.RookAttacks(sq, 0)
		destinations[sq][board.Queen] = board.QueenAttacks(sq, 0)
		destinations[sq][board.King] = board.KingAttacks(sq)

		pawnTemplate := board.PawnAttacks(sq, board.White) | board.PawnPushes(sq, board.White)
		if sq.Rank() == 1 {
			pawnTemplate |= board.PawnPushes(sq, board.White).North()
		}
		destinations[sq][board.Pawn] = pawnTemplate
	}

	cursor := 0
	for pt := board.Pawn; pt <= board.King; pt++ {
		for sq := board.A1; sq <= board.H8; sq++ {
			offsets[pt][sq] = cursor
			cursor += destinations[sq][pt].PopCount()
		}
		offsets[pt][64] = cursor
	}

	fromTo = offsets[board.King][64] + promos + castleSlots + doublePushSlots
	numMoveIndices = 2 * fromTo
}

// mirrorMask returns the square XOR applied for the side to move so that
// moves are always described in a normalized, "pawns advance upward" frame.
func mirrorMask(pos *board.Position) board.Square {
	side := pos.SideToMove
	return board.FeatureMirror(pos.KingSquare[side].File(), side)
}

// MoveToIndex maps a legal move to its policy output row. seeGood marks
// whether the move passed a static exchange check; the policy head doubles
// its output space on this flag so winning and losing captures of the same
// shape are scored independently.
func MoveToIndex(pos *board.Position, m board.Move, seeGood bool) int {
	mask := mirrorMask(pos)
	from := m.From() ^ mask
	to := m.To() ^ mask

	var idx int
	switch {
	case m.IsPromotion():
		promoID := 2*from.File() + to.File()
		promoPiece := int(m.Promotion() - board.Knight) // Knight=0 .. Queen=3
		idx = offsets[board.King][64] + promoCombos*promoPiece + promoID

	case m.Flag() == board.FlagKingCastle:
		idx = offsets[board.King][64] + promos + 0

	case m.Flag() == board.FlagQueenCastle:
		idx = offsets[board.King][64] + promos + 1

	case m.IsDoublePush():
		idx = offsets[board.King][64] + promos + castleSlots + from.File()

	default:
		pt := pos.PieceAt(m.From()).Type()
		destMask := destinations[from][pt]
		below := destMask & (board.SquareBB(to) - 1)
		idx = offsets[pt][from] + below.PopCount()
	}

	if seeGood {
		idx += fromTo
	}
	return idx
}

// PolicyNetwork scores legal moves relative to one another at a position; it
// never produces an absolute evaluation, only a move-selection preference.
type PolicyNetwork struct {
	l0 *sparseLayer[int8, int16]
	l1 *denseLayer[int8, int16] // one row per move-index bucket
}

// NewPolicyNetwork allocates an untrained policy network. Load must be
// called before Base/Logit are used.
func NewPolicyNetwork() *PolicyNetwork {
	return &PolicyNetwork{
		l0: newSparseLayer[int8, int16](InputSize, policyHidden),
		l1: newDenseLayer[int8, int16](policyHidden/2, numMoveIndices),
	}
}

// Load reads weights from r in L0, L1 order.
func (n *PolicyNetwork) Load(r io.Reader) error {
	if err := n.l0.read(r); err != nil {
		return err
	}
	return n.l1.read(r)
}

// policyBase is the shared hidden representation computed once per position
// and reused for every candidate move's logit.
type policyBase struct {
	values []int32 // length policyHidden/2
}

// Base computes the shared hidden accumulator for pos.
func (n *PolicyNetwork) Base(pos *board.Position) policyBase {
	active := FeatureIndices(pos)
	acc := n.l0.accumulate(active)
	mul := clampPairwiseMul(acc, policyQA)
	for i := range mul {
		mul[i] /= policyQA
	}
	return policyBase{values: mul}
}

// Logit returns the unnormalized score for move m given the shared base.
func (n *PolicyNetwork) Logit(pos *board.Position, base policyBase, m board.Move, seeGood bool) float64 {
	idx := MoveToIndex(pos, m, seeGood)
	row := n.l1.weights[idx*len(base.values) : idx*len(base.values)+len(base.values)]

	var fwd int64
	for i, w := range row {
		fwd += int64(base.values[i]) * int64(w)
	}
	out := float64(fwd)/float64(policyQA) + float64(n.l1.biases[idx])
	return out / float64(policyQB)
}

// MoveLogits scores every move in moves, where seeGood[i] reports whether
// moves[i] passed a static exchange check.
func (n *PolicyNetwork) MoveLogits(pos *board.Position, moves []board.Move, seeGood []bool) []float64 {
	base := n.Base(pos)
	logits := make([]float64, len(moves))
	for i, m := range moves {
		good := i < len(seeGood) && seeGood[i]
		logits[i] = n.Logit(pos, base, m, good)
	}
	return logits
}

// Softmax converts logits into a move-selection distribution. pst is a
// positional temperature: values above 1 flatten the distribution (used at
// the search root to encourage broader exploration), values below 1 sharpen
// it.
func Softmax(logits []float64, pst float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	out := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		v := math.Exp((l - max) / pst)
		out[i] = v
		sum += v
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
