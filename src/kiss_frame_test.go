package kisslink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestInstance(t require.TestingT, capacity int, crc bool) *KissInstance {
	var kiss = new(KissInstance)
	require.NoError(t, KissInit(kiss, make([]byte, capacity), 0, 0, crc, nil, nil, nil))

	return kiss
}

func TestEncodeEscapesPayload(t *testing.T) {
	// "A", FEND, "B" in an 8 byte buffer: worst case is 2*3+2 = 8 which
	// just fits, and the actual frame is 7 bytes with the FEND escaped.
	var kiss = newTestInstance(t, 8, false)

	require.NoError(t, kiss.Encode([]byte{0x41, 0xC0, 0x42}, KissHeaderData(0)))

	assert.Equal(t, []byte{0xC0, 0x00, 0x41, 0xDB, 0xDC, 0x42, 0xC0}, kiss.Frame())
	assert.Equal(t, KissTransmitting, kiss.Status())
}

func TestEncodeEscapesFESC(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	require.NoError(t, kiss.Encode([]byte{0xDB}, KissHeaderData(0)))

	assert.Equal(t, []byte{0xC0, 0x00, 0xDB, 0xDD, 0xC0}, kiss.Frame())
}

func TestEncodeEmptyPayload(t *testing.T) {
	var kiss = newTestInstance(t, 8, false)

	require.NoError(t, kiss.Encode(nil, KissHeaderPing))

	assert.Equal(t, []byte{0xC0, 0x30, 0xC0}, kiss.Frame())
}

func TestEncodeWorstCaseRejection(t *testing.T) {
	// 4 payload bytes need 2*4+2 = 10 > 8, rejected before writing.
	var kiss = newTestInstance(t, 8, false)

	var err = kiss.Encode([]byte{1, 2, 3, 4}, KissHeaderData(0))

	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Equal(t, KissErrorState, kiss.Status())
}

func TestEncodeReencodeAfterOverflow(t *testing.T) {
	var kiss = newTestInstance(t, 8, false)

	require.Error(t, kiss.Encode([]byte{1, 2, 3, 4}, KissHeaderData(0)))

	// The instance recovers by encoding something smaller.
	require.NoError(t, kiss.Encode([]byte{1, 2}, KissHeaderData(0)))
	assert.Equal(t, KissTransmitting, kiss.Status())
}

func TestEncodePadding(t *testing.T) {
	var kiss = new(KissInstance)
	require.NoError(t, KissInit(kiss, make([]byte, 32), 0, 3, false, nil, nil, nil))

	require.NoError(t, kiss.Encode([]byte{0x41}, KissHeaderData(0)))

	assert.Equal(t, []byte{0xC0, 0xC0, 0xC0, 0xC0, 0x00, 0x41, 0xC0}, kiss.Frame())
}

func TestEncodeDataPortHeader(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	require.NoError(t, kiss.Encode([]byte{0x41}, KissHeaderData(5)))

	assert.Equal(t, byte(0x05), kiss.Frame()[1])
}

func TestDecodeRequiresReceivedStatus(t *testing.T) {
	// Decoding right after encode must be refused; the status register
	// is what keeps the two directions from tripping over each other.
	var kiss = newTestInstance(t, 16, false)

	require.NoError(t, kiss.Encode([]byte{0x41}, KissHeaderData(0)))

	var output [16]byte
	var _, _, err = kiss.Decode(output[:])

	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.Equal(t, KissTransmitting, kiss.Status())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")
		var port = rapid.ByteRange(0, KissMaxPort).Draw(t, "port")

		var kiss = newTestInstance(t, 256, false)

		require.NoError(t, kiss.Encode(payload, KissHeaderData(port)))

		// No bare FEND may appear between the delimiters.
		var frame = kiss.Frame()
		assert.NotContains(t, frame[1:len(frame)-1], byte(KissFEND))

		kiss.status = KissReceived

		var output [256]byte
		var n, header, err = kiss.Decode(output[:])

		require.NoError(t, err)
		assert.Equal(t, KissHeaderData(port), header)
		assert.Equal(t, payload, append([]byte{}, output[:n]...))
	})
}

func TestEncodeDecodeCrc32RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")

		var kiss = newTestInstance(t, 256, true)

		require.NoError(t, kiss.EncodeCrc32(payload, KissHeaderData(0)))

		kiss.status = KissReceived

		var output [256]byte
		var n, header, err = kiss.DecodeCrc32(output[:])

		require.NoError(t, err)
		assert.Equal(t, KissHeaderData(0), header)
		assert.Equal(t, payload, append([]byte{}, output[:n]...))
	})
}

func TestDecodeCrc32Mismatch(t *testing.T) {
	var kiss = newTestInstance(t, 64, true)

	require.NoError(t, kiss.EncodeCrc32([]byte{0x41, 0x42}, KissHeaderData(0)))

	// Corrupt a payload byte inside the frame.
	kiss.buffer[2] ^= 0xFF
	kiss.status = KissReceived

	var output [64]byte
	var _, _, err = kiss.DecodeCrc32(output[:])

	assert.ErrorIs(t, err, ErrCrc32Mismatch)
	assert.Equal(t, KissReceivedError, kiss.Status())
}

func TestDecodeTruncatedEscape(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	// FESC directly before the closing FEND.
	copy(kiss.buffer, []byte{0xC0, 0x00, 0xDB, 0xC0})
	kiss.length = 4
	kiss.status = KissReceived

	var output [16]byte
	var _, _, err = kiss.Decode(output[:])

	assert.ErrorIs(t, err, ErrInvalidFrame)
	assert.Equal(t, KissReceivedError, kiss.Status())
}

func TestDecodeUnknownEscape(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	copy(kiss.buffer, []byte{0xC0, 0x00, 0xDB, 0x41, 0xC0})
	kiss.length = 5
	kiss.status = KissReceived

	var output [16]byte
	var _, _, err = kiss.Decode(output[:])

	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestDecodeOutputTooSmall(t *testing.T) {
	var kiss = newTestInstance(t, 64, false)

	require.NoError(t, kiss.Encode([]byte{1, 2, 3, 4, 5}, KissHeaderData(0)))
	kiss.status = KissReceived

	var output [2]byte
	var _, _, err = kiss.Decode(output[:])

	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestDecodeLeadingSyncPadding(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	copy(kiss.buffer, []byte{0xC0, 0xC0, 0xC0, 0x05, 0x41, 0xC0})
	kiss.length = 6
	kiss.status = KissReceived

	var output [16]byte
	var n, header, err = kiss.Decode(output[:])

	require.NoError(t, err)
	assert.Equal(t, byte(0x05), header)
	assert.Equal(t, []byte{0x41}, output[:n])
}

func TestDecodeEscapedHeader(t *testing.T) {
	var kiss = newTestInstance(t, 16, false)

	require.NoError(t, kiss.Encode([]byte{0x41}, KissFEND))

	kiss.status = KissReceived

	var output [16]byte
	var n, header, err = kiss.Decode(output[:])

	require.NoError(t, err)
	assert.Equal(t, byte(KissFEND), header)
	assert.Equal(t, []byte{0x41}, output[:n])
}

func TestPushEncodeWrongStatus(t *testing.T) {
	// A push with nothing encoded must be refused and must not bring
	// the instance down; a fresh encode afterwards works normally.
	var kiss = newTestInstance(t, 32, false)

	var err = kiss.PushEncode([]byte{0x41})

	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.Equal(t, KissNothing, kiss.Status())

	require.NoError(t, kiss.Encode([]byte{0x42}, KissHeaderData(0)))
	assert.Equal(t, []byte{0xC0, 0x00, 0x42, 0xC0}, kiss.Frame())
}

func TestPushEncodeAppends(t *testing.T) {
	var kiss = newTestInstance(t, 32, false)

	require.NoError(t, kiss.Encode([]byte{0x41}, KissHeaderData(0)))
	require.NoError(t, kiss.PushEncode([]byte{0xC0, 0x42}))

	assert.Equal(t, []byte{0xC0, 0x00, 0x41, 0xDB, 0xDC, 0x42, 0xC0}, kiss.Frame())
	assert.Equal(t, KissTransmitting, kiss.Status())
}

func TestPushEncodeEqualsSingleEncode(t *testing.T) {
	// Encoding a+b in one go and encoding a then pushing b must produce
	// identical frames.
	rapid.Check(t, func(t *rapid.T) {
		var a = rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "a")
		var b = rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "b")

		var whole = newTestInstance(t, 256, false)
		require.NoError(t, whole.Encode(append(append([]byte{}, a...), b...), KissHeaderData(0)))

		var pushed = newTestInstance(t, 256, false)
		require.NoError(t, pushed.Encode(a, KissHeaderData(0)))
		require.NoError(t, pushed.PushEncode(b))

		assert.Equal(t, whole.Frame(), pushed.Frame())
	})
}

func TestPushEncodeCrc32EqualsSingleEncode(t *testing.T) {
	// Same identity for the CRC protected path: the pushed frame's
	// repaired checksum must match the one-shot frame byte for byte.
	rapid.Check(t, func(t *rapid.T) {
		var a = rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "a")
		var b = rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "b")

		var whole = newTestInstance(t, 256, true)
		require.NoError(t, whole.EncodeCrc32(append(append([]byte{}, a...), b...), KissHeaderData(0)))

		var pushed = newTestInstance(t, 256, true)
		require.NoError(t, pushed.EncodeCrc32(a, KissHeaderData(0)))
		require.NoError(t, pushed.PushEncodeCrc32(b))

		assert.Equal(t, whole.Frame(), pushed.Frame())
	})
}

func TestPushEncodeCrc32EscapedChecksum(t *testing.T) {
	// Force a stored CRC containing FEND/FESC bytes so the backward
	// unescape in the repair path actually has escapes to undo.
	var payload []byte

	for i := 0; i < 1<<16; i++ {
		var candidate = []byte{byte(i), byte(i >> 8)}
		var crc = Crc32Push(Crc32Push(0, []byte{0}), candidate)

		if bytes.ContainsAny([]byte{byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24)}, "\xc0\xdb") {
			payload = candidate
			break
		}
	}

	require.NotNil(t, payload, "no two byte payload yields a CRC with FEND or FESC bytes?")

	var whole = newTestInstance(t, 256, true)
	require.NoError(t, whole.EncodeCrc32(append(payload, 0x99), KissHeaderData(0)))

	var pushed = newTestInstance(t, 256, true)
	require.NoError(t, pushed.EncodeCrc32(payload, KissHeaderData(0)))
	require.NoError(t, pushed.PushEncodeCrc32([]byte{0x99}))

	assert.Equal(t, whole.Frame(), pushed.Frame())
}

func BenchmarkEncode(b *testing.B) {
	var payload = make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	var kiss = newTestInstance(b, 4096, false)

	b.SetBytes(int64(len(payload)))

	for i := 0; i < b.N; i++ {
		if err := kiss.Encode(payload, KissHeaderData(0)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeCrc32(b *testing.B) {
	var payload = make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	var kiss = newTestInstance(b, 4096, true)

	b.SetBytes(int64(len(payload)))

	for i := 0; i < b.N; i++ {
		if err := kiss.EncodeCrc32(payload, KissHeaderData(0)); err != nil {
			b.Fatal(err)
		}
	}
}
