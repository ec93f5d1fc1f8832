package base62_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/serroba/shortlink/internal/base62"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		id   int64
		want string
	}{
		{0, "0"},
		{9, "9"},
		{10, "a"},
		{35, "z"},
		{36, "A"},
		{61, "Z"},
		{62, "10"},
		{3843, "ZZ"},
		{3844, "100"},
		{math.MaxInt64, "aZl8N0y58M7"},
	}

	for _, tc := range cases {
		got, err := base62.Encode(tc.id)

		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Encode(%d)", tc.id)
	}

	t.Run("rejects negative ids", func(t *testing.T) {
		_, err := base62.Encode(-1)

		assert.ErrorIs(t, err, base62.ErrNegativeID)
	})
}

func TestDecode(t *testing.T) {
	t.Run("decodes known codes", func(t *testing.T) {
		got, err := base62.Decode("10")

		require.NoError(t, err)
		assert.Equal(t, int64(62), got)
	})

	t.Run("decodes max int64", func(t *testing.T) {
		got, err := base62.Decode("aZl8N0y58M7")

		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), got)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := base62.Decode("")

		assert.ErrorIs(t, err, base62.ErrEmptyCode)
	})

	t.Run("rejects characters outside the alphabet", func(t *testing.T) {
		for _, code := range []string{"ab-c", "a b", "é", "abc/"} {
			_, err := base62.Decode(code)

			assert.ErrorIs(t, err, base62.ErrInvalidCharacter, code)
		}
	})

	t.Run("rejects values above int64", func(t *testing.T) {
		_, err := base62.Decode("aZl8N0y58M8")

		assert.ErrorIs(t, err, base62.ErrOverflow)

		_, err = base62.Decode("100000000000")

		assert.ErrorIs(t, err, base62.ErrOverflow)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Run("small ids", func(t *testing.T) {
		for id := range int64(10000) {
			code, err := base62.Encode(id)
			require.NoError(t, err)

			got, err := base62.Decode(code)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		}
	})

	t.Run("random ids up to 2^53 and beyond", func(t *testing.T) {
		r := rand.New(rand.NewPCG(1, 2))

		for range 10000 {
			id := r.Int64N(1 << 53)
			code, err := base62.Encode(id)
			require.NoError(t, err)

			got, err := base62.Decode(code)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		}

		for range 1000 {
			id := r.Int64()
			code, _ := base62.Encode(id)
			got, err := base62.Decode(code)

			require.NoError(t, err)
			assert.Equal(t, id, got)
		}
	})

	t.Run("distinct ids give distinct codes", func(t *testing.T) {
		seen := make(map[string]int64)

		for id := range int64(5000) {
			code, _ := base62.Encode(id)
			prev, dup := seen[code]
			assert.False(t, dup, "ids %d and %d share code %q", prev, id, code)

			seen[code] = id
		}
	})
}
