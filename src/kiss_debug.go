package kisslink

/*-------------------------------------------------------------------
 *
 * Purpose:     Print frames flowing to/from the peer for debugging.
 *
 *-------------------------------------------------------------------*/

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

type KissDirection int

const (
	KissFromPeer KissDirection = iota
	KissToPeer
)

var directionPrefix = map[KissDirection]string{
	KissFromPeer: "<<<",
	KissToPeer:   ">>>",
}

// KissHeaderName gives a human readable name for a header byte.
func KissHeaderName(header byte) string {
	switch header {
	case KissHeaderTxDelay:
		return "TXDELAY"
	case KissHeaderSpeed:
		return "SPEED"
	case KissHeaderPing:
		return "PING"
	case KissHeaderAck:
		return "ACK"
	case KissHeaderNack:
		return "NACK"
	case KissHeaderRequestParam:
		return "REQUEST-PARAM"
	case KissHeaderSetParam:
		return "SET-PARAM"
	case KissHeaderCommand:
		return "COMMAND"
	}

	if header <= KissMaxPort {
		return fmt.Sprintf("Data port %d", header)
	}

	return fmt.Sprintf("Unknown 0x%02x", header)
}

/*-------------------------------------------------------------------
 *
 * Name:        KissDebugPrint
 *
 * Purpose:     Log a raw frame with direction, classification and a
 *		hex dump.
 *
 * Inputs:	direction	- To or from the peer.
 *		frame		- Raw frame bytes, delimiters included.
 *
 *-------------------------------------------------------------------*/

func KissDebugPrint(direction KissDirection, frame []byte) {
	var header = "none"

	/* First content byte after the leading FENDs, if any. */
	for _, b := range frame {
		if b != KissFEND {
			header = KissHeaderName(b)
			break
		}
	}

	log.Debug(fmt.Sprintf("%s KISS frame", directionPrefix[direction]),
		"header", header,
		"length", len(frame))

	for _, line := range strings.Split(HexDump(frame), "\n") {
		log.Debug(line)
	}
}

// HexDump formats bytes in the traditional offset / hex / ASCII layout.
func HexDump(data []byte) string {
	var sb strings.Builder

	for offset := 0; offset < len(data); offset += 16 {
		var line = data[offset:min(offset+16, len(data))]

		fmt.Fprintf(&sb, "%03x: ", offset)

		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
		}

		sb.WriteString(" ")

		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}

		if offset+16 < len(data) {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
