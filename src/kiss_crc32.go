package kisslink

/*-------------------------------------------------------------
 *
 * Purpose:	CRC32 integrity layer for KISS frames.
 *
 *		Standard reflected CRC-32 (the same one Ethernet, zip and
 *		friends use): polynomial 0xEDB88320, initial value
 *		0xFFFFFFFF, final XOR 0xFFFFFFFF.
 *
 *		The interesting part is Crc32Push, which lets a checksum be
 *		extended after the fact.  That is what makes CRC protected
 *		push-encoding possible: the trailing CRC of an open frame
 *		can be unwound, fed more bytes, and re-applied without
 *		rehashing everything before it.
 *
 *--------------------------------------------------------------*/

const KissCrc32Poly = 0xEDB88320

/*
 * 256-entry lookup table, computed once at startup and immutable
 * afterwards, so concurrent instances can share it safely.
 */

var kissCrcTable = makeKissCrcTable()

func makeKissCrcTable() [256]uint32 {
	var table [256]uint32

	for i := 0; i < 256; i++ {
		var crc = uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ KissCrc32Poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}

	return table
}

/*-------------------------------------------------------------
 *
 * Name:	Crc32
 *
 * Purpose:	Compute the CRC32 of a whole buffer.
 *
 * Inputs:	data	- Bytes to checksum.  Empty is fine (result 0).
 *
 * Returns:	32-bit checksum with the final XOR already applied.
 *
 *--------------------------------------------------------------*/

func Crc32(data []byte) uint32 {
	return Crc32Push(0, data)
}

/*-------------------------------------------------------------
 *
 * Name:	Crc32Push
 *
 * Purpose:	Incrementally extend a CRC32.
 *
 * Inputs:	prev	- 0 to start a fresh checksum, otherwise the
 *			  result of an earlier Crc32 / Crc32Push call.
 *		data	- More bytes to run through the checksum.
 *
 * Returns:	Updated checksum.
 *
 * Description:	The final XOR is undone on the way in and re-applied on
 *		the way out, so
 *
 *			Crc32Push(0, a) == Crc32(a)
 *			Crc32Push(Crc32Push(0, a), b) == Crc32(append(a, b))
 *
 *		Note that ^0 is 0xFFFFFFFF, which is exactly the standard
 *		initial value, so the prev == 0 case needs nothing special.
 *
 *--------------------------------------------------------------*/

func Crc32Push(prev uint32, data []byte) uint32 {
	var crc = ^prev

	for _, b := range data {
		crc = kissCrcTable[byte(crc)^b] ^ (crc >> 8)
	}

	return ^crc
}

/*-------------------------------------------------------------
 *
 * Name:	Crc32Verify
 *
 * Purpose:	Recompute and compare.
 *
 *--------------------------------------------------------------*/

func Crc32Verify(data []byte, expected uint32) bool {
	return Crc32(data) == expected
}
