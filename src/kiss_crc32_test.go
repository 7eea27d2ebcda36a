package kisslink

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCrc32CheckValue(t *testing.T) {
	// The standard check value for this polynomial.
	assert.Equal(t, uint32(0xCBF43926), Crc32([]byte("123456789")))
}

func TestCrc32Empty(t *testing.T) {
	assert.Equal(t, uint32(0), Crc32(nil))
	assert.Equal(t, uint32(0), Crc32([]byte{}))
}

func TestCrc32MatchesStdlib(t *testing.T) {
	// Same polynomial as IEEE 802.3, so the stdlib is an independent oracle.
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		assert.Equal(t, crc32.ChecksumIEEE(data), Crc32(data))
	})
}

func TestCrc32PushFromZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		assert.Equal(t, Crc32(data), Crc32Push(0, data))
	})
}

func TestCrc32PushChaining(t *testing.T) {
	// Pushing in pieces must equal hashing the concatenation, however
	// the data is split.
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		var split = rapid.IntRange(0, len(data)).Draw(t, "split")

		var chained = Crc32Push(Crc32Push(0, data[:split]), data[split:])

		assert.Equal(t, Crc32(data), chained)
	})
}

func TestCrc32PushManyPieces(t *testing.T) {
	var data = []byte("the quick brown fox jumps over the lazy dog")

	var crc = uint32(0)
	for _, b := range data {
		crc = Crc32Push(crc, []byte{b})
	}

	assert.Equal(t, Crc32(data), crc)
}

func TestCrc32Verify(t *testing.T) {
	var data = []byte{0x01, 0x02, 0x03, 0xC0, 0xDB}

	assert.True(t, Crc32Verify(data, Crc32(data)))
	assert.False(t, Crc32Verify(data, Crc32(data)^1))
}

func BenchmarkCrc32(b *testing.B) {
	var data = make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}

	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		Crc32(data)
	}
}
