package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: flag (see the Flag* constants)
type Move uint16

// Move flags. A 4-bit tag distinguishes every special case the tree and the
// SEE routine need to branch on without re-deriving them from board state.
const (
	FlagQuiet Move = iota << 12
	FlagDoublePush
	FlagKingCastle
	FlagQueenCastle
	FlagCapture
	FlagEnPassant
	_reserved6
	_reserved7
	FlagPromoN
	FlagPromoB
	FlagPromoR
	FlagPromoQ
	FlagPromoCaptureN
	FlagPromoCaptureB
	FlagPromoCaptureR
	FlagPromoCaptureQ
)

const flagMask Move = 0xF000

// NoMove represents an invalid or null move.
const NoMove Move = 0

func encode(from, to Square, flag Move) Move {
	return Move(from) | Move(to)<<6 | flag
}

// NewQuiet creates a non-capturing, non-special move.
func NewQuiet(from, to Square) Move {
	return encode(from, to, FlagQuiet)
}

// NewDoublePush creates a two-square pawn push.
func NewDoublePush(from, to Square) Move {
	return encode(from, to, FlagDoublePush)
}

// NewCapture creates an ordinary capture.
func NewCapture(from, to Square) Move {
	return encode(from, to, FlagCapture)
}

// NewEnPassant creates an en-passant capture.
func NewEnPassant(from, to Square) Move {
	return encode(from, to, FlagEnPassant)
}

// NewKingCastle creates a kingside castling move (king's own movement).
func NewKingCastle(from, to Square) Move {
	return encode(from, to, FlagKingCastle)
}

// NewQueenCastle creates a queenside castling move (king's own movement).
func NewQueenCastle(from, to Square) Move {
	return encode(from, to, FlagQueenCastle)
}

var promoFlags = [4]Move{FlagPromoN, FlagPromoB, FlagPromoR, FlagPromoQ}
var promoCaptureFlags = [4]Move{FlagPromoCaptureN, FlagPromoCaptureB, FlagPromoCaptureR, FlagPromoCaptureQ}

// NewPromotion creates a non-capturing promotion.
func NewPromotion(from, to Square, promo PieceType) Move {
	return encode(from, to, promoFlags[promo-Knight])
}

// NewPromotionCapture creates a capturing promotion.
func NewPromotionCapture(from, to Square, promo PieceType) Move {
	return encode(from, to, promoCaptureFlags[promo-Knight])
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move's flag tag.
func (m Move) Flag() Move {
	return m & flagMask
}

// Promotion returns the promotion piece type. Only valid if IsPromotion() is true.
func (m Move) Promotion() PieceType {
	flag := m.Flag()
	if flag >= FlagPromoCaptureN {
		return PieceType((flag-FlagPromoCaptureN)>>12) + Knight
	}
	return PieceType((flag-FlagPromoN)>>12) + Knight
}

// IsPromotion returns true if this move promotes a pawn (with or without capture).
func (m Move) IsPromotion() bool {
	return m.Flag() >= FlagPromoN
}

// IsCastling returns true if this is a king- or queenside castle.
func (m Move) IsCastling() bool {
	flag := m.Flag()
	return flag == FlagKingCastle || flag == FlagQueenCastle
}

// IsEnPassant returns true if this is an en-passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsDoublePush returns true if this is a two-square pawn push.
func (m Move) IsDoublePush() bool {
	return m.Flag() == FlagDoublePush
}

// IsCapture returns true if this move removes an enemy piece from the board,
// including en-passant and promotion-captures.
func (m Move) IsCapture() bool {
	switch m.Flag() {
	case FlagCapture, FlagEnPassant, FlagPromoCaptureN, FlagPromoCaptureB, FlagPromoCaptureR, FlagPromoCaptureQ:
		return true
	default:
		return false
	}
}

// IsQuiet returns true if this move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI long-algebraic form of the move (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}

	return s
}

// ParseMove parses a UCI long-algebraic move string against the given position,
// reconstructing the correct flag (capture, en-passant, castle, promotion...).
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	isCapture := pos.PieceAt(to) != NoPiece

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		if isCapture {
			return NewPromotionCapture(from, to, promo), nil
		}
		return NewPromotion(from, to, promo), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		if to.File() == 6 {
			return NewKingCastle(from, to), nil
		}
		return NewQueenCastle(from, to), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePush(from, to), nil
	}

	if isCapture {
		return NewCapture(from, to), nil
	}
	return NewQuiet(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Each calls fn for every move in the list.
func (ml *MoveList) Each(fn func(Move)) {
	for i := 0; i < ml.count; i++ {
		fn(ml.moves[i])
	}
}

// UndoInfo stores information needed to undo a move.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
	Valid          bool // true if the move was actually applied
}
