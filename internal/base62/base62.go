// Package base62 maps non-negative row identifiers to short alphanumeric codes
// and back.
package base62

import (
	"errors"
	"math"
)

// Alphabet is digits, then lowercase, then uppercase.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = int64(len(Alphabet))

var (
	ErrNegativeID       = errors.New("base62: negative id")
	ErrEmptyCode        = errors.New("base62: empty code")
	ErrInvalidCharacter = errors.New("base62: character outside alphabet")
	ErrOverflow         = errors.New("base62: code exceeds int64 range")
)

var index [256]int8

func init() {
	for i := range index {
		index[i] = -1
	}

	for i := range len(Alphabet) {
		index[Alphabet[i]] = int8(i)
	}
}

// Encode returns the base62 representation of id. Encode(0) is "0".
func Encode(id int64) (string, error) {
	if id < 0 {
		return "", ErrNegativeID
	}

	if id == 0 {
		return Alphabet[:1], nil
	}

	// 11 digits cover MaxInt64.
	buf := make([]byte, 0, 11)
	for id > 0 {
		buf = append(buf, Alphabet[id%base])
		id /= base
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

// Decode is the inverse of Encode.
func Decode(code string) (int64, error) {
	if code == "" {
		return 0, ErrEmptyCode
	}

	var result int64

	for i := range len(code) {
		v := index[code[i]]
		if v < 0 {
			return 0, ErrInvalidCharacter
		}

		if result > (math.MaxInt64-int64(v))/base {
			return 0, ErrOverflow
		}

		result = result*base + int64(v)
	}

	return result, nil
}
