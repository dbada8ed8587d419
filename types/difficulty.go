package types

import (
	"encoding/binary"
	"errors"
	"math"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	fasthex "github.com/tmthrgd/go-hex"
	"lukechampine.com/uint128"
)

const DifficultySize = 16

//nolint:recvcheck
type Difficulty uint128.Uint128

var ZeroDifficulty Difficulty

var MaxDifficulty = Difficulty{Lo: math.MaxUint64, Hi: math.MaxUint64}

func NewDifficulty(lo, hi uint64) Difficulty {
	return Difficulty(uint128.New(lo, hi))
}

func DifficultyFrom64(v uint64) Difficulty {
	return Difficulty(uint128.From64(v))
}

func DifficultyFromString(s string) (Difficulty, error) {
	if buf, err := fasthex.DecodeString(s); err != nil {
		return ZeroDifficulty, err
	} else {
		if len(buf) != DifficultySize {
			return ZeroDifficulty, errors.New("wrong size")
		}
		return Difficulty{
			Hi: binary.BigEndian.Uint64(buf[:8]),
			Lo: binary.BigEndian.Uint64(buf[8:]),
		}, nil
	}
}

func MustDifficultyFromString(s string) Difficulty {
	if d, err := DifficultyFromString(s); err != nil {
		panic(err)
	} else {
		return d
	}
}

// ParseDifficulty accepts 0x prefixed hexadecimal, 32-character padded
// hexadecimal, or plain decimal difficulty values.
func ParseDifficulty(s string) (Difficulty, error) {
	if strings.HasPrefix(s, "0x") {
		h := s[2:]
		if len(h) == 0 || len(h) > DifficultySize*2 {
			return ZeroDifficulty, errors.New("wrong size")
		}
		if len(h) <= 16 {
			lo, err := strconv.ParseUint(h, 16, 64)
			if err != nil {
				return ZeroDifficulty, err
			}
			return DifficultyFrom64(lo), nil
		}
		hi, err := strconv.ParseUint(h[:len(h)-16], 16, 64)
		if err != nil {
			return ZeroDifficulty, err
		}
		lo, err := strconv.ParseUint(h[len(h)-16:], 16, 64)
		if err != nil {
			return ZeroDifficulty, err
		}
		return NewDifficulty(lo, hi), nil
	}

	if len(s) == DifficultySize*2 {
		if d, err := DifficultyFromString(s); err == nil {
			return d, nil
		}
	}

	lo, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return ZeroDifficulty, err
	}
	return DifficultyFrom64(lo), nil
}

func (d Difficulty) IsZero() bool {
	return uint128.Uint128(d).IsZero()
}

func (d Difficulty) Equals(other Difficulty) bool {
	return uint128.Uint128(d).Equals(uint128.Uint128(other))
}

func (d Difficulty) Mul64(v uint64) Difficulty {
	return Difficulty(uint128.Uint128(d).MulWrap64(v))
}

func (d Difficulty) Div(divisor Difficulty) Difficulty {
	return Difficulty(uint128.Uint128(d).Div(uint128.Uint128(divisor)))
}

func (d Difficulty) Div64(divisor uint64) Difficulty {
	return Difficulty(uint128.Uint128(d).Div64(divisor))
}

func (d Difficulty) Add(other Difficulty) Difficulty {
	return Difficulty(uint128.Uint128(d).AddWrap(uint128.Uint128(other)))
}

func (d Difficulty) Sub(other Difficulty) Difficulty {
	return Difficulty(uint128.Uint128(d).SubWrap(uint128.Uint128(other)))
}

func (d Difficulty) Cmp(other Difficulty) int {
	return uint128.Uint128(d).Cmp(uint128.Uint128(other))
}

func (d Difficulty) String() string {
	var buf [DifficultySize]byte
	binary.BigEndian.PutUint64(buf[:8], d.Hi)
	binary.BigEndian.PutUint64(buf[8:], d.Lo)
	return fasthex.EncodeToString(buf[:])
}

func (d Difficulty) StringNumeric() string {
	return uint128.Uint128(d).String()
}

func (d Difficulty) MarshalJSON() ([]byte, error) {
	var raw [DifficultySize]byte
	binary.BigEndian.PutUint64(raw[:8], d.Hi)
	binary.BigEndian.PutUint64(raw[8:], d.Lo)

	var buf [DifficultySize*2 + 2]byte
	buf[0] = '"'
	buf[DifficultySize*2+1] = '"'
	fasthex.Encode(buf[1:], raw[:])
	return buf[:], nil
}

func (d *Difficulty) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return errors.New("invalid difficulty")
	}

	if b[0] == '"' {
		if len(b) < 2 || b[len(b)-1] != '"' {
			return errors.New("invalid difficulty")
		}
		s := string(b[1 : len(b)-1])
		if s == "" {
			*d = ZeroDifficulty
			return nil
		}
		diff, err := ParseDifficulty(s)
		if err != nil {
			return err
		}
		*d = diff
		return nil
	}

	lo, err := utils.ParseUint64(b)
	if err != nil {
		return err
	}
	*d = DifficultyFrom64(lo)
	return nil
}

// CheckPoW verifies that hash, interpreted as a little endian 256-bit value,
// multiplied by the difficulty does not overflow 2^256.
func (d Difficulty) CheckPoW(pow Hash) bool {
	var result [6]uint64
	var carry uint64

	for i := 0; i < 4; i++ {
		h := pow.Word(i)

		p := uint128.From64(h).Mul64(d.Lo)
		result[i], carry = bits.Add64(result[i], p.Lo, 0)
		result[i+1], carry = bits.Add64(result[i+1], p.Hi, carry)
		result[i+2], _ = bits.Add64(result[i+2], 0, carry)

		p = uint128.From64(h).Mul64(d.Hi)
		result[i+1], carry = bits.Add64(result[i+1], p.Lo, 0)
		result[i+2], carry = bits.Add64(result[i+2], p.Hi, carry)
		if i < 3 {
			result[i+3], _ = bits.Add64(result[i+3], 0, carry)
		}
	}

	return result[4] == 0 && result[5] == 0
}

// CheckPoW_Native same as CheckPoW, without using uint128
func (d Difficulty) CheckPoW_Native(pow Hash) bool {
	var result [6]uint64
	var carry uint64

	for i := 0; i < 4; i++ {
		h := pow.Word(i)

		hi, lo := bits.Mul64(h, d.Lo)
		result[i], carry = bits.Add64(result[i], lo, 0)
		result[i+1], carry = bits.Add64(result[i+1], hi, carry)
		result[i+2], _ = bits.Add64(result[i+2], 0, carry)

		hi, lo = bits.Mul64(h, d.Hi)
		result[i+1], carry = bits.Add64(result[i+1], lo, 0)
		result[i+2], carry = bits.Add64(result[i+2], hi, carry)
		if i < 3 {
			result[i+3], _ = bits.Add64(result[i+3], 0, carry)
		}
	}

	return result[4] == 0 && result[5] == 0
}

var max256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// DifficultyFromPoW calculates the difficulty a hash would meet exactly.
// Assumes pow is in little endian
func DifficultyFromPoW(powHash Hash) Difficulty {
	if powHash == ZeroHash {
		return ZeroDifficulty
	}

	var be [HashSize]byte
	for i := range be {
		be[i] = powHash[HashSize-1-i]
	}

	q := new(big.Int).Div(max256, new(big.Int).SetBytes(be[:]))
	if q.BitLen() > 128 {
		return MaxDifficulty
	}

	return NewDifficulty(q.Uint64(), new(big.Int).Rsh(q, 64).Uint64())
}
