package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Link instance, status register, and the transmit /
 *		receive halves of the frame lifecycle.
 *
 * Description:	A KissInstance owns exactly one working buffer (borrowed
 *		from the caller, never reallocated) and two transport
 *		callbacks.  Every codec entry point is gated on the status
 *		register so a stale or half-built buffer can never be sent
 *		or decoded by accident.
 *
 *		One frame in flight per instance.  No goroutine safety: an
 *		instance must be driven from a single goroutine.
 *
 *---------------------------------------------------------------*/

import "fmt"

type KissStatus int

const (
	KissNothing KissStatus = iota /* Initial state. */
	KissTransmitting              /* Frame encoded, not yet sent. */
	KissTransmitted               /* Frame handed to the write callback. */
	KissReceiving                 /* Assembly in progress. */
	KissReceived                  /* Complete frame in buffer, ready to decode. */
	KissReceivedError             /* Decode or CRC verify failed. */
	KissErrorState                /* Encode overflow or transport failure. */
)

func (s KissStatus) String() string {
	switch s {
	case KissNothing:
		return "NOTHING"
	case KissTransmitting:
		return "TRANSMITTING"
	case KissTransmitted:
		return "TRANSMITTED"
	case KissReceiving:
		return "RECEIVING"
	case KissReceived:
		return "RECEIVED"
	case KissReceivedError:
		return "RECEIVED_ERROR"
	case KissErrorState:
		return "ERROR_STATE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

/*
 * Transport callbacks.  The write callback must transmit the whole
 * slice or return an error.  The read callback must return promptly
 * with zero or more bytes - the engine's only notion of time is the
 * attempt counter in ReceiveFrame, so a read that blocks forever
 * blocks the engine forever.
 */

type KissWriteFunc func(kiss *KissInstance, data []byte) error

type KissReadFunc func(kiss *KissInstance, buffer []byte) (int, error)

type KissInstance struct {
	buffer []byte /* Caller's working memory.  Capacity is len(buffer). */
	length int    /* Meaningful bytes currently in buffer. */

	txDelay byte /* Advisory, in 10 ms units.  Only ever transported, never interpreted. */
	padding byte /* Leading sync FENDs to emit before each frame. */

	crcEnabled bool /* Append / verify a trailing CRC32.  Must match the peer for the whole session. */

	status        KissStatus
	lastFrameKind KissFrameKind

	write KissWriteFunc
	read  KissReadFunc

	Context any /* Opaque, passed through to callbacks untouched. */
}

/*-------------------------------------------------------------------
 *
 * Name:        KissInit
 *
 * Purpose:     Initialize a KissInstance.
 *
 * Inputs:	buffer		- Working memory for encoded / received frames.
 *				  Borrowed for the life of the instance; the
 *				  caller must not touch it between calls.
 *		txDelay		- Advisory TX delay in 10 ms units.
 *		padding		- Extra leading FENDs per frame, 0 - 32,
 *				  for bit sync on noisy links.
 *		crcEnabled	- Frames carry a trailing CRC32.
 *		write, read	- Transport callbacks.  Either may be nil if
 *				  that direction is never used; the relevant
 *				  operation will then fail with
 *				  ErrCallbackMissing rather than crash.
 *		context		- Stashed in kiss.Context for the callbacks.
 *
 * Returns:	nil on success, ErrInvalidParams / ErrPaddingOverflow.
 *
 *--------------------------------------------------------------------*/

func KissInit(kiss *KissInstance, buffer []byte, txDelay byte, padding byte, crcEnabled bool, write KissWriteFunc, read KissReadFunc, context any) error {
	if kiss == nil || len(buffer) == 0 {
		return ErrInvalidParams
	}

	if padding > KissMaxPadding {
		return ErrPaddingOverflow
	}

	kiss.buffer = buffer
	kiss.length = 0
	kiss.txDelay = txDelay
	kiss.padding = padding
	kiss.crcEnabled = crcEnabled
	kiss.status = KissNothing
	kiss.lastFrameKind = KissFrameNone
	kiss.write = write
	kiss.read = read
	kiss.Context = context

	return nil
}

/*
 * Accessors.  The buffer itself stays private so nothing outside the
 * engine can violate the length bookkeeping.
 */

func (kiss *KissInstance) Status() KissStatus {
	return kiss.status
}

func (kiss *KissInstance) Len() int {
	return kiss.length
}

func (kiss *KissInstance) Capacity() int {
	return len(kiss.buffer)
}

// Frame returns the meaningful bytes currently in the working buffer
// (an encoded frame awaiting send, or a received frame awaiting decode).
// The slice aliases the working buffer; treat it as read-only.
func (kiss *KissInstance) Frame() []byte {
	return kiss.buffer[:kiss.length]
}

func (kiss *KissInstance) TxDelay() byte {
	return kiss.txDelay
}

func (kiss *KissInstance) CrcEnabled() bool {
	return kiss.crcEnabled
}

// LastFrameKind reports the classification (ack/nack/ping/none) of the
// most recently decoded header.
func (kiss *KissInstance) LastFrameKind() KissFrameKind {
	return kiss.lastFrameKind
}

/*-------------------------------------------------------------------
 *
 * Name:        SendFrame
 *
 * Purpose:     Push the encoded frame out through the write callback.
 *
 * Returns:	nil and status TRANSMITTED on success.
 *		ErrDataNotEncoded if there is no freshly encoded frame.
 *		ErrCallbackMissing if no write callback was supplied.
 *		The callback's error (wrapped) and status ERROR_STATE if
 *		the transport fails.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) SendFrame() error {
	if kiss.write == nil {
		return ErrCallbackMissing
	}

	if kiss.status != KissTransmitting {
		return ErrDataNotEncoded
	}

	if err := kiss.write(kiss, kiss.buffer[:kiss.length]); err != nil {
		kiss.status = KissErrorState
		return fmt.Errorf("kiss: transport write failed: %w", err)
	}

	kiss.status = KissTransmitted

	return nil
}

// EncodeAndSend is the common encode-then-send composition, honouring
// the instance's CRC setting.
func (kiss *KissInstance) EncodeAndSend(data []byte, header byte) error {
	var err error

	if kiss.crcEnabled {
		err = kiss.EncodeCrc32(data, header)
	} else {
		err = kiss.Encode(data, header)
	}

	if err != nil {
		return err
	}

	return kiss.SendFrame()
}

/*-------------------------------------------------------------------
 *
 * Name:        ReceiveFrame
 *
 * Purpose:     Drive the read callback until a complete frame sits in
 *		the working buffer.
 *
 * Inputs:	maxAttempts	- Upper bound on read callback invocations.
 *				  This is the engine's only timeout; wall
 *				  clock behaviour is up to the callback.
 *
 * Returns:	nil and status RECEIVED with buffer = FEND header ... FEND.
 *		ErrNoDataReceived once attempts are exhausted - the link
 *		stays usable, just call again.
 *		ErrBufferOverflow / ErrInvalidFrame and ERROR_STATE on a
 *		frame the buffer cannot hold or that is malformed.
 *		The callback's error (wrapped) and ERROR_STATE on a
 *		transport failure.
 *
 * Description:	Anything before the first FEND is discarded as noise.
 *		Further FENDs seen before any content are leading sync
 *		padding and are skipped.  Once inside a frame, bytes are
 *		kept verbatim (escapes are resolved later, by decode)
 *		until the closing FEND.
 *
 *		A frame may arrive split across several reads as long as
 *		it completes within the attempt budget.  Bytes after the
 *		closing FEND in the same read are dropped; one frame in
 *		flight per instance.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) ReceiveFrame(maxAttempts int) error {
	if kiss.read == nil {
		return ErrCallbackMissing
	}

	if maxAttempts <= 0 {
		return ErrInvalidParams
	}

	kiss.status = KissReceiving
	kiss.length = 0

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if kiss.length >= len(kiss.buffer) {
			kiss.status = KissErrorState
			return ErrBufferOverflow
		}

		var n, err = kiss.read(kiss, kiss.buffer[kiss.length:])
		if err != nil {
			kiss.status = KissErrorState
			return fmt.Errorf("kiss: transport read failed: %w", err)
		}

		/*
		 * Scan the newly read bytes, compacting the kept ones down
		 * onto the end of the frame so far.  The write index can
		 * never pass the read index, so this is safe in place.
		 */

		var end = kiss.length + n

		for r := kiss.length; r < end; r++ {
			var b = kiss.buffer[r]

			switch {
			case kiss.length == 0:
				/* Searching for the opening FEND; everything else is noise. */
				if b == KissFEND {
					kiss.buffer[0] = b
					kiss.length = 1
				}

			case kiss.length == 1:
				/* Repeated FENDs here are leading sync padding. */
				if b != KissFEND {
					kiss.buffer[1] = b
					kiss.length = 2
				}

			default:
				kiss.buffer[kiss.length] = b
				kiss.length++

				if b == KissFEND {
					/* Closing FEND.  Anything after it in this read is dropped. */
					if kiss.length < KissMinFrameLen {
						kiss.status = KissErrorState
						return ErrInvalidFrame
					}

					kiss.status = KissReceived
					return nil
				}
			}
		}
	}

	/* Attempts exhausted without a complete frame.  Not fatal. */
	return ErrNoDataReceived
}

// ReceiveAndDecode is ReceiveFrame followed by the appropriate decode,
// propagating the first error.
func (kiss *KissInstance) ReceiveAndDecode(output []byte, maxAttempts int) (int, byte, error) {
	if err := kiss.ReceiveFrame(maxAttempts); err != nil {
		return 0, 0, err
	}

	if kiss.crcEnabled {
		return kiss.DecodeCrc32(output)
	}

	return kiss.Decode(output)
}
