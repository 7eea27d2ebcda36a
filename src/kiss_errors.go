package kisslink

import "errors"

/*
 * Every operation reports failure as one of these distinct errors
 * (possibly wrapped with more detail - compare with errors.Is).
 * There is no silent recovery anywhere; the caller decides whether
 * to retry, re-encode or give up.
 *
 * Recoverable: ErrCrc32Mismatch and ErrNoDataReceived (just try again).
 * Everything that trips KissErrorState needs a fresh encode or receive.
 */

var ErrInvalidParams = errors.New("kiss: invalid parameters")
var ErrInvalidFrame = errors.New("kiss: invalid frame")
var ErrBufferOverflow = errors.New("kiss: buffer overflow")
var ErrNoDataReceived = errors.New("kiss: no data received")
var ErrDataNotEncoded = errors.New("kiss: no frame encoded to send")
var ErrCrc32Mismatch = errors.New("kiss: CRC32 mismatch")
var ErrCallbackMissing = errors.New("kiss: transport callback missing")
var ErrWrongStatus = errors.New("kiss: operation not valid in current status")
var ErrPaddingOverflow = errors.New("kiss: padding exceeds maximum")
