package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Linux pseudo terminal transport shell.
 *
 * Description:	Creates a pty pair so old applications that only know how
 *		to open a serial device can talk KISS to us.  A symlink
 *		with a stable name points at the slave side because the
 *		actual /dev/pts/N name changes every run.
 *
 *		Reads on the master block until the client writes, which
 *		is fine for a dedicated receive loop; use the serial or
 *		TCP shell if you need prompt, bounded reads.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/creack/pty"
)

const ptSymlink = "/tmp/kisstnc"

/*-------------------------------------------------------------------
 *
 * Name:	PseudoTerminalOpen
 *
 * Purpose:	Create a pseudo terminal acting as a virtual KISS device.
 *
 * Returns:	Master side (ours), slave device name (the client's), error.
 *		Also leaves a symlink at /tmp/kisstnc pointing at the
 *		slave, replacing any stale one.
 *
 *--------------------------------------------------------------------*/

func PseudoTerminalOpen() (*os.File, string, error) {
	var master, slave, err = pty.Open()
	if err != nil {
		return nil, "", fmt.Errorf("kiss: could not create pseudo terminal: %w", err)
	}

	var name = slave.Name()

	/* The client opens the slave by name; we keep only the master. */
	slave.Close()

	os.Remove(ptSymlink)
	if err := os.Symlink(name, ptSymlink); err != nil {
		/* Not fatal - the real name still works. */
		fmt.Fprintf(os.Stderr, "kiss: could not create symlink %s: %s\n", ptSymlink, err)
	}

	return master, name, nil
}

// PseudoTerminalWriteFunc adapts the pty master into a KissWriteFunc.
func PseudoTerminalWriteFunc(master *os.File) KissWriteFunc {
	return func(_ *KissInstance, data []byte) error {
		for len(data) > 0 {
			var n, err = master.Write(data)
			if err != nil {
				return err
			}
			data = data[n:]
		}

		return nil
	}
}

// PseudoTerminalReadFunc adapts the pty master into a KissReadFunc.
func PseudoTerminalReadFunc(master *os.File) KissReadFunc {
	return func(_ *KissInstance, buffer []byte) (int, error) {
		return master.Read(buffer)
	}
}
