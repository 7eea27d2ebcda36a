package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	File drop transport shell.
 *
 * Description:	Two peers share a directory; each writes its outgoing
 *		frames to the other's inbox file and polls its own.  A
 *		read consumes (deletes) the inbox so the same frame is
 *		never seen twice.
 *
 *		Slow and silly for production, but it needs nothing but a
 *		filesystem, which makes it ideal for demos and tests of
 *		the full request/response protocol.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

type FileTransport struct {
	ReadPath  string /* Our inbox, deleted after each successful read. */
	WritePath string /* The peer's inbox. */

	PollDelay time.Duration /* Pause before each inbox check.  Zero means 5 ms. */
}

func (ft *FileTransport) pollDelay() time.Duration {
	if ft.PollDelay <= 0 {
		return 5 * time.Millisecond
	}

	return ft.PollDelay
}

// Write replaces the peer's inbox with the frame.
func (ft *FileTransport) Write(_ *KissInstance, data []byte) error {
	return os.WriteFile(ft.WritePath, data, 0o644)
}

// Read checks our inbox once, consuming it if present.  No file yet is
// zero bytes, not an error - the receive loop's attempt counter does
// the waiting.
func (ft *FileTransport) Read(_ *KissInstance, buffer []byte) (int, error) {
	time.Sleep(ft.pollDelay())

	var data, err = os.ReadFile(ft.ReadPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if len(data) > len(buffer) {
		return 0, ErrBufferOverflow
	}

	copy(buffer, data)
	os.Remove(ft.ReadPath)

	return len(data), nil
}
