// Package nnue implements the quantized value and policy evaluators: a pair
// of small feed-forward networks that share a common sparse feature layout
// extracted from the board instead of a hand-tuned evaluation function.
package nnue

import (
	"github.com/kestrelchess/kestrel/internal/board"
)

// Feature layout constants. A position contributes one feature per piece on
// the board: a base index identifying (side, piece type, mirrored square),
// plus independent offsets for four board relationships the piece may be
// in simultaneously (attacked, defended, diagonally pinned, orthogonally
// pinned). Each relationship doubles the addressable range, so the full
// input space is 768 * 2^4.
const (
	baseFeatures = 768 // 2 sides * 6 piece types * 64 squares
	InputSize    = baseFeatures * 16

	offsetOpponentSide = 384
	offsetAttacked      = 768
	offsetDefended      = 768 * 2
	offsetDiagPinned    = 768 * 4
	offsetOrthoPinned   = 768 * 8
)

// PinnedMasks returns the pieces of color c that are pinned against c's own
// king, split by the axis of the pin. A piece pinned along a diagonal may
// still move along that diagonal; a piece pinned along a rank/file may
// still move along it. The feature extractor only needs to know which axis
// a piece is restricted to, not the legal destinations themselves.
func PinnedMasks(p *board.Position, c board.Color) (diag, ortho board.Bitboard) {
	them := c.Other()
	boys := p.Occupied[c]
	opps := p.Occupied[them]
	ksq := p.KingSquare[c]
	occ := p.AllOccupied

	rookSnipers := board.XrayRook(ksq, occ, boys) & opps & (p.Pieces[them][board.Rook] | p.Pieces[them][board.Queen])
	for rookSnipers != 0 {
		sq := rookSnipers.PopLSB()
		blockers := board.Between(sq, ksq) & occ
		if blockers.PopCount() == 1 && blockers&boys != 0 {
			ortho |= blockers
		}
	}

	bishopSnipers := board.XrayBishop(ksq, occ, boys) & opps & (p.Pieces[them][board.Bishop] | p.Pieces[them][board.Queen])
	for bishopSnipers != 0 {
		sq := bishopSnipers.PopLSB()
		blockers := board.Between(sq, ksq) & occ
		if blockers.PopCount() == 1 && blockers&boys != 0 {
			diag |= blockers
		}
	}

	return diag, ortho
}

// FeatureIndices returns the active input indices for pos, one per piece
// in board scan order (not sorted), from the perspective of the side to
// move.
func FeatureIndices(pos *board.Position) []int32 {
	own := pos.SideToMove
	xorMask := board.FeatureMirror(pos.KingSquare[own].File(), own)

	diagW, orthoW := PinnedMasks(pos, board.White)
	diagB, orthoB := PinnedMasks(pos, board.Black)

	indices := make([]int32, 0, 32)

	for _, c := range [2]board.Color{board.White, board.Black} {
		sideOffset := 0
		if c != own {
			sideOffset = offsetOpponentSide
		}
		diagPins, orthoPins := diagW, orthoW
		if c == board.Black {
			diagPins, orthoPins = diagB, orthoB
		}

		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				idx := sideOffset + 64*int(pt) + int(sq^xorMask)

				if pos.IsSquareAttacked(sq, c.Other()) {
					idx += offsetAttacked
				}
				if pos.IsSquareAttacked(sq, c) {
					idx += offsetDefended
				}
				if diagPins.IsSet(sq) {
					idx += offsetDiagPinned
				}
				if orthoPins.IsSet(sq) {
					idx += offsetOrthoPinned
				}

				indices = append(indices, int32(idx))
			}
		}
	}

	return indices
}
