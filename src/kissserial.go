package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Serial port transport shell.
 *
 * Description:	The engine core knows nothing about serial ports; this
 *		file just turns an open port into the write/read callback
 *		pair KissInit wants.  The port gets a short read timeout
 *		so the receive loop's attempt counter stays meaningful -
 *		the engine has no wall clock of its own.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"
)

const serialReadTimeout = 100 * time.Millisecond

/*-------------------------------------------------------------------
 *
 * Name:	SerialOpen
 *
 * Purpose:	Open a serial port in raw mode for KISS framing.
 *
 * Inputs:	devicename	- Usually /dev/tty... on Linux.
 *				  Could be /dev/rfcomm0 for Bluetooth.
 *
 *		speed		- 1200, 4800, 9600 bps, etc.
 *				  0 leaves the current speed alone.
 *
 * Returns 	Handle for serial port, or error.
 *
 *---------------------------------------------------------------*/

func SerialOpen(devicename string, speed int) (*term.Term, error) {
	var port, err = term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("kiss: could not open serial port %s: %w", devicename, err)
	}

	switch speed {
	case 0: /* Leave it alone. */
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := port.SetSpeed(speed); err != nil {
			port.Close()
			return nil, fmt.Errorf("kiss: could not set %s to %d bps: %w", devicename, speed, err)
		}
	default:
		port.Close()
		return nil, fmt.Errorf("%w: unsupported serial speed %d", ErrInvalidParams, speed)
	}

	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("kiss: could not set read timeout on %s: %w", devicename, err)
	}

	return port, nil
}

// SerialWriteFunc adapts a serial port into a KissWriteFunc.  It either
// transmits the whole frame or reports an error.
func SerialWriteFunc(port *term.Term) KissWriteFunc {
	return func(_ *KissInstance, data []byte) error {
		for len(data) > 0 {
			var n, err = port.Write(data)
			if err != nil {
				return err
			}
			data = data[n:]
		}

		return nil
	}
}

// SerialReadFunc adapts a serial port into a KissReadFunc.  A read
// timeout comes back as zero bytes, not an error, so the receive loop
// can burn an attempt and try again.
func SerialReadFunc(port *term.Term) KissReadFunc {
	return func(_ *KissInstance, buffer []byte) (int, error) {
		var n, err = port.Read(buffer)
		if errors.Is(err, io.EOF) {
			/* VMIN=0/VTIME expiry: nothing arrived yet. */
			return n, nil
		}

		return n, err
	}
}
