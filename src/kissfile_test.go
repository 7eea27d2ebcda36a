package kisslink

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransportReadConsumes(t *testing.T) {
	var dir = t.TempDir()

	var transport = &FileTransport{
		ReadPath:  filepath.Join(dir, "inbox"),
		WritePath: filepath.Join(dir, "inbox"),
		PollDelay: time.Microsecond,
	}

	require.NoError(t, transport.Write(nil, []byte{0xC0, 0x00, 0xC0}))

	var buffer [16]byte

	var n, err = transport.Read(nil, buffer[:])
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC0, 0x00, 0xC0}, buffer[:n])

	// Consumed: a second read finds nothing.
	n, err = transport.Read(nil, buffer[:])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFileTransportEndToEnd(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "frames")

	var sender = new(KissInstance)
	var senderTransport = &FileTransport{WritePath: path, PollDelay: time.Microsecond}
	require.NoError(t, KissInit(sender, make([]byte, 128), 0, 0, true, senderTransport.Write, nil, nil))

	var receiver = new(KissInstance)
	var receiverTransport = &FileTransport{ReadPath: path, PollDelay: time.Microsecond}
	require.NoError(t, KissInit(receiver, make([]byte, 128), 0, 0, true, nil, receiverTransport.Read, nil))

	require.NoError(t, sender.EncodeAndSend([]byte("hello"), KissHeaderData(2)))

	var output [128]byte
	var n, header, err = receiver.ReceiveAndDecode(output[:], 10)

	require.NoError(t, err)
	assert.Equal(t, KissHeaderData(2), header)
	assert.Equal(t, []byte("hello"), output[:n])
}
