package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	TCP socket transport shell.
 *
 * Description:	KISS over TCP is the usual way to talk to a soft TNC on
 *		the same host or LAN (direwolf style, default port 8001).
 *		A short read deadline keeps the read callback prompt; the
 *		receive loop's attempt counter is the only timeout the
 *		engine itself has.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"net"
	"time"
)

const netReadTimeout = 100 * time.Millisecond

// NetOpen connects to a KISS peer at hostname:port over TCP.
func NetOpen(hostname string, port string) (net.Conn, error) {
	var conn, err = net.Dial("tcp", net.JoinHostPort(hostname, port))
	if err != nil {
		return nil, fmt.Errorf("kiss: could not connect to %s:%s: %w", hostname, port, err)
	}

	return conn, nil
}

// NetWriteFunc adapts a TCP connection into a KissWriteFunc.
func NetWriteFunc(conn net.Conn) KissWriteFunc {
	return func(_ *KissInstance, data []byte) error {
		for len(data) > 0 {
			var n, err = conn.Write(data)
			if err != nil {
				return err
			}
			data = data[n:]
		}

		return nil
	}
}

// NetReadFunc adapts a TCP connection into a KissReadFunc.  A deadline
// expiry is reported as zero bytes so the attempt counter keeps
// ticking; a closed connection is a real error.
func NetReadFunc(conn net.Conn) KissReadFunc {
	return func(_ *KissInstance, buffer []byte) (int, error) {
		if err := conn.SetReadDeadline(time.Now().Add(netReadTimeout)); err != nil {
			return 0, err
		}

		var n, err = conn.Read(buffer)

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, nil
		}

		return n, err
	}
}
