package types

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Int128Size is the encoded size of a signed 128-bit integer.
const Int128Size = 16

// ErrInt128Overflow is returned when a value does not fit in 128 signed bits.
var ErrInt128Overflow = errors.New("value out of int128 range")

var (
	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	MaxInt128  = sdkmath.NewIntFromBigInt(maxInt128)
	MinInt128  = sdkmath.NewIntFromBigInt(minInt128)
	ZeroInt128 = sdkmath.ZeroInt()
)

// FitsInt128 reports whether v is representable as a signed 128-bit integer.
func FitsInt128(v sdkmath.Int) bool {
	b := v.BigInt()
	return b.Cmp(minInt128) >= 0 && b.Cmp(maxInt128) <= 0
}

// PutInt128BE writes v as 16 bytes big-endian two's complement.
func PutInt128BE(dst []byte, v sdkmath.Int) error {
	if !FitsInt128(v) {
		return ErrInt128Overflow
	}
	b := v.BigInt()
	if b.Sign() < 0 {
		b.Add(b, two128)
	}
	b.FillBytes(dst[:Int128Size])
	return nil
}

// PutInt128LE writes v as 16 bytes little-endian two's complement.
func PutInt128LE(dst []byte, v sdkmath.Int) error {
	var be [Int128Size]byte
	if err := PutInt128BE(be[:], v); err != nil {
		return err
	}
	for i := 0; i < Int128Size; i++ {
		dst[i] = be[Int128Size-1-i]
	}
	return nil
}

// Int128BE decodes 16 bytes of big-endian two's complement.
func Int128BE(src []byte) sdkmath.Int {
	b := new(big.Int).SetBytes(src[:Int128Size])
	if src[0]&0x80 != 0 {
		b.Sub(b, two128)
	}
	return sdkmath.NewIntFromBigInt(b)
}

// Int128LE decodes 16 bytes of little-endian two's complement.
func Int128LE(src []byte) sdkmath.Int {
	var be [Int128Size]byte
	for i := 0; i < Int128Size; i++ {
		be[i] = src[Int128Size-1-i]
	}
	return Int128BE(be[:])
}
