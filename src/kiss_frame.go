package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	The frame codec: escaping, unescaping, push-append, and
 *		the CRC32 protected variants of each.
 *
 * Description:	Encoded frame layout inside the working buffer:
 *
 *			padding * FEND		- optional bit-sync lead-in
 *			FEND			- frame start
 *			header			- escaped if it collides
 *			payload			- escaped
 *			CRC32 little-endian	- escaped, only when enabled
 *			FEND			- frame end
 *
 *		Escaping: FEND becomes FESC TFEND, FESC becomes FESC TFESC,
 *		everything else passes through.  That guarantees FEND only
 *		ever appears at frame boundaries.
 *
 *---------------------------------------------------------------*/

import "encoding/binary"

/*
 * Low level append helpers.  Every write is bounds checked against the
 * buffer capacity; an overflow leaves the frame partially written, so
 * callers must put the instance into KissErrorState and re-encode from
 * scratch before reusing it.
 */

func (kiss *KissInstance) appendByte(b byte) error {
	if kiss.length >= len(kiss.buffer) {
		return ErrBufferOverflow
	}

	kiss.buffer[kiss.length] = b
	kiss.length++

	return nil
}

func (kiss *KissInstance) appendEscaped(b byte) error {
	switch b {
	case KissFEND:
		if err := kiss.appendByte(KissFESC); err != nil {
			return err
		}
		return kiss.appendByte(KissTFEND)
	case KissFESC:
		if err := kiss.appendByte(KissFESC); err != nil {
			return err
		}
		return kiss.appendByte(KissTFESC)
	default:
		return kiss.appendByte(b)
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        Encode
 *
 * Purpose:     Encode a payload into the working buffer as a complete
 *		KISS frame.
 *
 * Inputs:	data	- Payload bytes.  Empty is a valid frame.
 *		header	- Header byte, escaped like any other content.
 *
 * Returns:	nil and status TRANSMITTING on success.
 *		ErrInvalidParams for a missing working buffer.
 *		ErrBufferOverflow (and ERROR_STATE) when the payload cannot
 *		fit even before trying, or when a write runs out of room.
 *
 * Errors:	After an overflow the buffer holds a partial frame and must
 *		not be sent; re-encode with a smaller payload.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) Encode(data []byte, header byte) error {
	return kiss.encode(data, header, false)
}

// EncodeCrc32 is Encode plus a trailing CRC32 over header and payload.
func (kiss *KissInstance) EncodeCrc32(data []byte, header byte) error {
	return kiss.encode(data, header, true)
}

func (kiss *KissInstance) encode(data []byte, header byte, withCrc bool) error {
	if kiss.buffer == nil {
		return ErrInvalidParams
	}

	/* Worst case every payload byte is escaped. */
	var worst = 2*len(data) + 2
	if withCrc {
		worst += 8
	}

	if worst > len(kiss.buffer) {
		kiss.status = KissErrorState
		return ErrBufferOverflow
	}

	kiss.length = 0

	for i := byte(0); i < kiss.padding; i++ {
		if err := kiss.appendByte(KissFEND); err != nil {
			kiss.status = KissErrorState
			return err
		}
	}

	if err := kiss.appendByte(KissFEND); err != nil {
		kiss.status = KissErrorState
		return err
	}

	if err := kiss.appendEscaped(header); err != nil {
		kiss.status = KissErrorState
		return err
	}

	for _, b := range data {
		if err := kiss.appendEscaped(b); err != nil {
			kiss.status = KissErrorState
			return err
		}
	}

	if withCrc {
		/* Header and payload are hashed as two separate pushes. */
		var crc = Crc32Push(Crc32Push(0, []byte{header}), data)
		if err := kiss.appendCrc(crc); err != nil {
			kiss.status = KissErrorState
			return err
		}
	}

	if err := kiss.appendByte(KissFEND); err != nil {
		kiss.status = KissErrorState
		return err
	}

	kiss.status = KissTransmitting

	return nil
}

func (kiss *KissInstance) appendCrc(crc uint32) error {
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)

	for _, b := range crcBytes {
		if err := kiss.appendEscaped(b); err != nil {
			return err
		}
	}

	return nil
}

/*-------------------------------------------------------------------
 *
 * Name:        PushEncode
 *
 * Purpose:     Append more payload to an already-encoded, still-open
 *		frame without re-encoding it.
 *
 * Inputs:	data	- Bytes to append (escaped on the way in).
 *
 * Returns:	nil on success; the frame is re-terminated and status
 *		stays TRANSMITTING.
 *		ErrWrongStatus unless a frame was just encoded.
 *		ErrInvalidFrame if the buffer does not actually end in a
 *		FEND (corrupted precondition).
 *		ErrBufferOverflow (and ERROR_STATE) when out of room.
 *
 * Description:	Used to build composite frames - e.g. a parameter ID
 *		followed by its value - one piece at a time.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) PushEncode(data []byte) error {
	if kiss.status != KissTransmitting {
		return ErrWrongStatus
	}

	if kiss.length < KissMinFrameLen || kiss.buffer[kiss.length-1] != KissFEND {
		return ErrInvalidFrame
	}

	/* Drop the closing FEND, append, close again. */
	kiss.length--

	for _, b := range data {
		if err := kiss.appendEscaped(b); err != nil {
			kiss.status = KissErrorState
			return err
		}
	}

	return kiss.terminate()
}

func (kiss *KissInstance) terminate() error {
	if err := kiss.appendByte(KissFEND); err != nil {
		kiss.status = KissErrorState
		return err
	}

	return nil
}

/*-------------------------------------------------------------------
 *
 * Name:        PushEncodeCrc32
 *
 * Purpose:     PushEncode for a CRC32 protected frame: append payload
 *		AND repair the trailing checksum.
 *
 * Description:	Three explicit steps, in this order:
 *
 *		 1. Un-escape the last four content bytes of the open frame
 *		    (walking backwards - a FESC can only ever be an escape
 *		    prefix, so "previous byte is FESC" is unambiguous) and
 *		    reassemble the stored little-endian CRC32.
 *		 2. Extend it over the new bytes with Crc32Push, which
 *		    internally undoes and re-applies the final XOR.
 *		 3. Truncate the frame at the start of the old CRC region,
 *		    append the escaped new payload, the escaped repaired
 *		    CRC, and the closing FEND.
 *
 *		This is the most delicate operation in the engine.  The
 *		stored CRC bytes can themselves contain FEND or FESC, so
 *		they occupy four to eight encoded bytes, which is why the
 *		extraction has to undo escaping rather than just counting.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) PushEncodeCrc32(data []byte) error {
	if kiss.status != KissTransmitting {
		return ErrWrongStatus
	}

	if kiss.length < KissMinFrameLen || kiss.buffer[kiss.length-1] != KissFEND {
		return ErrInvalidFrame
	}

	/* Step 1: recover the stored CRC from the escaped tail. */

	var crcBytes [4]byte
	var pos = kiss.length - 2 /* Last content byte, before the closing FEND. */

	for i := 3; i >= 0; i-- {
		if pos < 1 {
			return ErrInvalidFrame
		}

		if kiss.buffer[pos-1] == KissFESC {
			switch kiss.buffer[pos] {
			case KissTFEND:
				crcBytes[i] = KissFEND
			case KissTFESC:
				crcBytes[i] = KissFESC
			default:
				return ErrInvalidFrame
			}
			pos -= 2
		} else {
			crcBytes[i] = kiss.buffer[pos]
			pos--
		}
	}

	var stored = binary.LittleEndian.Uint32(crcBytes[:])

	/* Step 2: extend. */

	var repaired = Crc32Push(stored, data)

	/* Step 3: rewrite the tail. */

	kiss.length = pos + 1

	for _, b := range data {
		if err := kiss.appendEscaped(b); err != nil {
			kiss.status = KissErrorState
			return err
		}
	}

	if err := kiss.appendCrc(repaired); err != nil {
		kiss.status = KissErrorState
		return err
	}

	return kiss.terminate()
}

/*-------------------------------------------------------------------
 *
 * Name:        Decode
 *
 * Purpose:     Extract header and payload from the received frame in
 *		the working buffer.
 *
 * Inputs:	output	- Where decoded payload bytes go.  len(output)
 *			  bounds the decode; running past it is an error,
 *			  never a silent truncation.
 *
 * Returns:	Payload length, header byte, error.
 *		ErrWrongStatus unless a frame was received.
 *		ErrInvalidFrame (and RECEIVED_ERROR) for bad framing or a
 *		truncated / unrecognized escape.
 *		ErrBufferOverflow (and RECEIVED_ERROR) if output is too small.
 *
 * Outputs:	LastFrameKind is set from the header as a side effect.
 *
 * Description:	Leading FENDs are sync padding and are skipped.  A frame
 *		consisting of just header and delimiters decodes to a
 *		zero length payload, which is not an error.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) Decode(output []byte) (int, byte, error) {
	if kiss.status != KissReceived {
		return 0, 0, ErrWrongStatus
	}

	var n, header, err = kiss.decodeFrame(nil, output)
	if err != nil {
		kiss.status = KissReceivedError
		return 0, 0, err
	}

	return n, header, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        DecodeCrc32
 *
 * Purpose:     Decode plus verification of the trailing CRC32.
 *
 * Returns:	Payload length (checksum excluded), header byte, error.
 *		ErrCrc32Mismatch (and RECEIVED_ERROR) when the recomputed
 *		checksum over header + payload disagrees with the stored
 *		one.  Deliberately distinct from framing errors: a CRC
 *		failure is recoverable, just receive again.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) DecodeCrc32(output []byte) (int, byte, error) {
	if kiss.status != KissReceived {
		return 0, 0, ErrWrongStatus
	}

	var n, header, err = kiss.decodeFrame(nil, output)
	if err != nil {
		kiss.status = KissReceivedError
		return 0, 0, err
	}

	if n < 4 {
		kiss.status = KissReceivedError
		return 0, 0, ErrInvalidFrame
	}

	var stored = binary.LittleEndian.Uint32(output[n-4 : n])
	var actual = Crc32Push(Crc32Push(0, []byte{header}), output[:n-4])

	if stored != actual {
		kiss.status = KissReceivedError
		return 0, 0, ErrCrc32Mismatch
	}

	return n - 4, header, nil
}

/*
 * decodeFrame is the unescaping core shared by Decode, DecodeCrc32 and
 * ExtractParam.  Decoded bytes fill `first` before spilling into
 * `output`; the split lets ExtractParam peel off the parameter ID
 * without an intermediate allocation.  Returns the total decoded count
 * across both regions.
 */

func (kiss *KissInstance) decodeFrame(first []byte, output []byte) (int, byte, error) {
	var frame = kiss.buffer[:kiss.length]

	if len(frame) < KissMinFrameLen || frame[0] != KissFEND {
		return 0, 0, ErrInvalidFrame
	}

	/* Skip the opening FEND plus any leading sync padding. */

	var i = 0
	for i < len(frame) && frame[i] == KissFEND {
		i++
	}

	if i >= len(frame) {
		/* All delimiters, no header. */
		return 0, 0, ErrInvalidFrame
	}

	/* Header, possibly escaped. */

	var header byte

	if frame[i] == KissFESC {
		if i+1 >= len(frame) {
			return 0, 0, ErrInvalidFrame
		}
		switch frame[i+1] {
		case KissTFEND:
			header = KissFEND
		case KissTFESC:
			header = KissFESC
		default:
			return 0, 0, ErrInvalidFrame
		}
		i += 2
	} else {
		header = frame[i]
		i++
	}

	kiss.lastFrameKind = classifyHeader(header)

	/* Payload, up to the closing FEND. */

	var n = 0
	var terminated = false

	for ; i < len(frame); i++ {
		var b = frame[i]

		if b == KissFEND {
			terminated = true
			break
		}

		if b == KissFESC {
			i++
			if i >= len(frame) || frame[i] == KissFEND {
				/* Escape as the very last content byte: truncated. */
				return 0, 0, ErrInvalidFrame
			}
			switch frame[i] {
			case KissTFEND:
				b = KissFEND
			case KissTFESC:
				b = KissFESC
			default:
				return 0, 0, ErrInvalidFrame
			}
		}

		if n < len(first) {
			first[n] = b
		} else if n-len(first) < len(output) {
			output[n-len(first)] = b
		} else {
			return 0, 0, ErrBufferOverflow
		}
		n++
	}

	if !terminated {
		return 0, 0, ErrInvalidFrame
	}

	return n, header, nil
}
