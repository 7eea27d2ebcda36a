package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Minimal request/response control protocol on top of the
 *		codec: ACK / NACK / PING, TX delay and speed settings,
 *		two-byte commands, and parameter get/set/extract.
 *
 * Description:	Control frames are ordinary frames with a reserved header
 *		value.  ACK, NACK and PING carry no payload at all; TX
 *		delay carries one byte; speed a 32-bit little-endian value;
 *		commands a 16-bit little-endian value.
 *
 *		Parameter frames carry a 16-bit little-endian parameter ID
 *		followed by the raw value bytes.  A set-parameter frame is
 *		built in two steps (encode the ID, push-append the value)
 *		which is exactly what PushEncode exists for.
 *
 *		The whole layer goes through the public codec and receive
 *		loop; it never touches the transport callbacks directly.
 *
 *		When the instance has CRC enabled, control frames carry the
 *		checksum like everything else - a session either checksums
 *		every frame or none of them.
 *
 *---------------------------------------------------------------*/

import "encoding/binary"

/*
 * Byte pair / quad helpers matching the wire order of the speed and
 * command frames.
 */

func KissBytesToUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func KissBytesToUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// controlFrame encodes payload under header, honouring the instance's
// CRC setting, and sends it.
func (kiss *KissInstance) controlFrame(header byte, payload []byte) error {
	var err error

	if kiss.crcEnabled {
		err = kiss.EncodeCrc32(payload, header)
	} else {
		err = kiss.Encode(payload, header)
	}

	if err != nil {
		return err
	}

	return kiss.SendFrame()
}

// SendAck transmits an empty acknowledge frame.
func (kiss *KissInstance) SendAck() error {
	return kiss.controlFrame(KissHeaderAck, nil)
}

// SendNack transmits an empty negative-acknowledge frame.
func (kiss *KissInstance) SendNack() error {
	return kiss.controlFrame(KissHeaderNack, nil)
}

// SendPing transmits an empty ping frame.  Convention is for the peer
// to answer with an ACK.
func (kiss *KissInstance) SendPing() error {
	return kiss.controlFrame(KissHeaderPing, nil)
}

// SendTxDelay transmits the advisory TX delay (10 ms units) and records
// it in the instance.
func (kiss *KissInstance) SendTxDelay(delay byte) error {
	if err := kiss.controlFrame(KissHeaderTxDelay, []byte{delay}); err != nil {
		return err
	}

	kiss.txDelay = delay

	return nil
}

// SendSpeed transmits a link speed advisory in bits per second.
func (kiss *KissInstance) SendSpeed(bps uint32) error {
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], bps)

	return kiss.controlFrame(KissHeaderSpeed, payload[:])
}

// SendCommand transmits an opaque two-byte command value.  What the
// values mean is between the two peers.
func (kiss *KissInstance) SendCommand(command uint16) error {
	var payload [2]byte
	binary.LittleEndian.PutUint16(payload[:], command)

	return kiss.controlFrame(KissHeaderCommand, payload[:])
}

/*-------------------------------------------------------------------
 *
 * Name:        SetParam
 *
 * Purpose:     Transmit a parameter assignment: 16-bit ID followed by
 *		the raw value bytes.
 *
 * Inputs:	id	- Parameter identifier.
 *		value	- Value bytes, any length the buffer can hold.
 *
 * Description:	Built as encode-then-push rather than a single encode,
 *		exercising the push path (including the CRC repair when
 *		checksums are on).
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) SetParam(id uint16, value []byte) error {
	var idBytes [2]byte
	binary.LittleEndian.PutUint16(idBytes[:], id)

	var err error

	if kiss.crcEnabled {
		err = kiss.EncodeCrc32(idBytes[:], KissHeaderSetParam)
		if err == nil {
			err = kiss.PushEncodeCrc32(value)
		}
	} else {
		err = kiss.Encode(idBytes[:], KissHeaderSetParam)
		if err == nil {
			err = kiss.PushEncode(value)
		}
	}

	if err != nil {
		return err
	}

	return kiss.SendFrame()
}

/*-------------------------------------------------------------------
 *
 * Name:        RequestParam
 *
 * Purpose:     Ask the peer for a parameter value and wait (bounded)
 *		for the reply.
 *
 * Inputs:	id		- Parameter identifier to request.
 *		output		- Scratch for the decoded reply payload
 *				  (ID plus value, so at least 2 bytes
 *				  bigger than the largest expected value).
 *		maxAttempts	- Read attempt budget for the reply.
 *
 * Returns:	Decoded payload length (ID included, checksum excluded)
 *		and the first error hit.  A reply whose header is not
 *		set-parameter is ErrInvalidFrame, not a successful
 *		extraction.
 *
 * Description:	The reply stays in the working buffer, so the caller can
 *		follow up with ExtractParam to split ID from value.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) RequestParam(id uint16, output []byte, maxAttempts int) (int, error) {
	var idBytes [2]byte
	binary.LittleEndian.PutUint16(idBytes[:], id)

	if err := kiss.controlFrame(KissHeaderRequestParam, idBytes[:]); err != nil {
		return 0, err
	}

	if err := kiss.ReceiveFrame(maxAttempts); err != nil {
		return 0, err
	}

	var n int
	var header byte
	var err error

	if kiss.crcEnabled {
		n, header, err = kiss.DecodeCrc32(output)
	} else {
		n, header, err = kiss.Decode(output)
	}

	if err != nil {
		return 0, err
	}

	if header != KissHeaderSetParam {
		return 0, ErrInvalidFrame
	}

	return n, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        ExtractParam
 *
 * Purpose:     Split the received parameter frame into ID and value.
 *
 * Inputs:	value	- Where the value bytes go.  len(value) bounds
 *			  the extraction.
 *
 * Returns:	Parameter ID, value length, error.
 *		ErrInvalidFrame unless the header is set-parameter or
 *		request-parameter and the payload holds at least the
 *		two ID bytes.
 *
 *--------------------------------------------------------------------*/

func (kiss *KissInstance) ExtractParam(value []byte) (uint16, int, error) {
	if kiss.status != KissReceived {
		return 0, 0, ErrWrongStatus
	}

	var idBytes [2]byte

	var n, header, err = kiss.decodeFrame(idBytes[:], value)
	if err != nil {
		kiss.status = KissReceivedError
		return 0, 0, err
	}

	if header != KissHeaderSetParam && header != KissHeaderRequestParam {
		return 0, 0, ErrInvalidFrame
	}

	var valueLen = n - 2

	if kiss.crcEnabled {
		/* The trailing 4 decoded bytes are the checksum, not value. */
		if n < 6 {
			kiss.status = KissReceivedError
			return 0, 0, ErrInvalidFrame
		}

		var stored = binary.LittleEndian.Uint32(value[n-6 : n-2])
		var actual = Crc32Push(Crc32Push(Crc32Push(0, []byte{header}), idBytes[:]), value[:n-6])

		if stored != actual {
			kiss.status = KissReceivedError
			return 0, 0, ErrCrc32Mismatch
		}

		valueLen = n - 6
	} else if n < 2 {
		kiss.status = KissReceivedError
		return 0, 0, ErrInvalidFrame
	}

	return binary.LittleEndian.Uint16(idBytes[:]), valueLen, nil
}
