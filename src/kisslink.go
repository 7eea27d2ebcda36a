package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Byte-oriented KISS framing engine for half duplex links.
 *
 * Description: The KISS TNC protocol is described in http://www.ka9q.net/papers/kiss.html
 *
 * 		Briefly, a frame is composed of
 *
 *			* FEND (0xC0)
 *			* Contents - with special escape sequences so a 0xc0
 *				byte in the data is not taken as end of frame.
 *			* FEND
 *
 *		The first content byte is the header.  Data frames carry the
 *		port number in the low nibble with the high nibble zero.
 *		Everything else (TX delay, speed, ping, ack, nack, parameter
 *		get/set, commands) uses one of the reserved header values
 *		below, chosen with a zero low nibble so they can never
 *		collide with a data port.
 *
 *		Frames may optionally carry a trailing CRC32 (little-endian,
 *		escaped like any other content) over header plus payload.
 *
 *		The engine works entirely inside a single caller-provided
 *		buffer and talks to the outside world through two callbacks,
 *		so it can sit on top of a UART, I2C, socket, file drop or
 *		anything else that can move bytes.
 *
 *---------------------------------------------------------------*/

/*
 * Special characters used by SLIP/KISS framing.
 */

const KissFEND = 0xC0  /* Frame end / start. */
const KissFESC = 0xDB  /* Escape prefix. */
const KissTFEND = 0xDC /* Transposed FEND, follows FESC. */
const KissTFESC = 0xDD /* Transposed FESC, follows FESC. */

/*
 * Reserved header values for control frames.
 * Data frames are 0x00 - 0x0F (the port number).
 */

const KissHeaderTxDelay = 0x10
const KissHeaderSpeed = 0x20
const KissHeaderPing = 0x30
const KissHeaderAck = 0x40
const KissHeaderNack = 0x50
const KissHeaderRequestParam = 0x60
const KissHeaderSetParam = 0x70
const KissHeaderCommand = 0x80

const KissMaxPort = 0x0F

// KissHeaderData builds the header byte for a data frame on the given port.
func KissHeaderData(port byte) byte {
	return port & KissMaxPort
}

/*
 * Limits.
 */

const KissMaxPadding = 32 /* Leading sync FENDs before a frame. */

const KissMinFrameLen = 3 /* FEND, header, FEND. */

/*
 * Classification of the most recently decoded header.
 * Purely a convenience for callers; set as a side effect of decoding.
 */

type KissFrameKind int

const (
	KissFrameNone KissFrameKind = iota
	KissFrameAck
	KissFrameNack
	KissFramePing
)

func (k KissFrameKind) String() string {
	switch k {
	case KissFrameAck:
		return "ACK"
	case KissFrameNack:
		return "NACK"
	case KissFramePing:
		return "PING"
	default:
		return "NONE"
	}
}

func classifyHeader(header byte) KissFrameKind {
	switch header {
	case KissHeaderAck:
		return KissFrameAck
	case KissHeaderNack:
		return KissFrameNack
	case KissHeaderPing:
		return KissFramePing
	default:
		return KissFrameNone
	}
}
