package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Two peer demonstration of the control protocol.
 *
 * Description:	Models the classic on-board-computer / power-subsystem
 *		pair: the OBC pings the EPS, sets a parameter, reads it
 *		back and issues a command; the EPS answers every frame.
 *
 *		The two sides talk through a pair of spool files, so
 *		the whole exchange can run in one process (the default)
 *		or split across two with --role.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

const (
	exchangeParamBatteryLevel   = 0x0001
	exchangeParamHeaterSetpoint = 0x0002

	exchangeCommandReboot = 0x0100
)

// epsState is hung off the EPS instance's Context field: the parameter
// table the OBC reads and writes.
type epsState struct {
	mu     sync.Mutex
	params map[uint16][]byte
}

func KissExchangeMain() {
	var role = pflag.String("role", "both", "Which side to run: obc, eps, or both.")
	var dir = pflag.String("dir", os.TempDir(), "Directory for the spool files.")
	var crc = pflag.Bool("crc", false, "Protect every frame with a CRC32.")
	var verbose = pflag.BoolP("verbose", "v", false, "Verbose. Show the KISS frame contents.")
	var version = pflag.Bool("version", false, "Print version and exit.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - OBC/EPS control protocol exchange over spool files.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: kissexchange [options]\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *version {
		PrintVersion()
		return
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var toEps = filepath.Join(*dir, "kissexchange-to-eps")
	var toObc = filepath.Join(*dir, "kissexchange-to-obc")

	switch *role {
	case "obc":
		exchangeObc(toEps, toObc, *crc)
	case "eps":
		exchangeEps(toEps, toObc, *crc)
	case "both":
		var done = make(chan struct{})
		go func() {
			exchangeEps(toEps, toObc, *crc)
			close(done)
		}()
		exchangeObc(toEps, toObc, *crc)
		<-done
	default:
		log.Fatal("Unknown role", "role", *role)
	}
}

func exchangeInit(kiss *KissInstance, writePath string, readPath string, crc bool, context any) {
	var transport = &FileTransport{
		ReadPath:  readPath,
		WritePath: writePath,
	}

	if err := KissInit(kiss, make([]byte, 1024), 0, 0, crc, transport.Write, transport.Read, context); err != nil {
		log.Fatal("KissInit failed", "error", err)
	}
}

/*
 * The OBC side drives the conversation and stops after one full round.
 */

func exchangeObc(toEps string, toObc string, crc bool) {
	var kiss KissInstance
	exchangeInit(&kiss, toEps, toObc, crc, nil)

	var logger = log.With("side", "obc")
	var output [64]byte

	expectKind := func(want KissFrameKind) {
		if err := kiss.ReceiveFrame(1000); err != nil {
			logger.Fatal("No reply", "error", err)
		}
		if _, _, err := exchangeDecode(&kiss, output[:]); err != nil {
			logger.Fatal("Bad reply", "error", err)
		}
		if kiss.LastFrameKind() != want {
			logger.Fatal("Unexpected reply", "want", want, "got", kiss.LastFrameKind())
		}
	}

	logger.Info("Ping")
	if err := kiss.SendPing(); err != nil {
		logger.Fatal("Ping failed", "error", err)
	}
	expectKind(KissFrameAck)

	logger.Info("Set heater setpoint", "value", 42)
	if err := kiss.SetParam(exchangeParamHeaterSetpoint, []byte{42}); err != nil {
		logger.Fatal("SetParam failed", "error", err)
	}
	expectKind(KissFrameAck)

	logger.Info("Read heater setpoint back")
	if _, err := kiss.RequestParam(exchangeParamHeaterSetpoint, output[:], 1000); err != nil {
		logger.Fatal("RequestParam failed", "error", err)
	}
	var value [16]byte
	var id, n, err = kiss.ExtractParam(value[:])
	if err != nil {
		logger.Fatal("ExtractParam failed", "error", err)
	}
	logger.Info("Parameter", "id", id, "value", fmt.Sprintf("% x", value[:n]))

	logger.Info("Reboot command")
	if cmdErr := kiss.SendCommand(exchangeCommandReboot); cmdErr != nil {
		logger.Fatal("SendCommand failed", "error", cmdErr)
	}
	expectKind(KissFrameAck)

	logger.Info("Done")
}

/*
 * The EPS side answers frames until it has seen the reboot command.
 */

func exchangeEps(toEps string, toObc string, crc bool) {
	var state = &epsState{
		params: map[uint16][]byte{
			exchangeParamBatteryLevel:   {87},
			exchangeParamHeaterSetpoint: {20},
		},
	}

	var kiss KissInstance
	exchangeInit(&kiss, toObc, toEps, crc, state)

	var logger = log.With("side", "eps")

	for {
		if err := kiss.ReceiveFrame(1000); err != nil {
			logger.Error("Receive failed", "error", err)
			continue
		}

		var done, err = epsAnswer(&kiss, logger)
		if err != nil {
			logger.Error("Exchange failed", "error", err)
		}
		if done {
			return
		}
	}
}

func epsAnswer(kiss *KissInstance, logger *log.Logger) (bool, error) {
	var state = kiss.Context.(*epsState)

	var output [64]byte
	var n, header, err = exchangeDecode(kiss, output[:])

	switch {
	case err == nil && header == KissHeaderRequestParam:
		if n < 2 {
			return false, ErrInvalidFrame
		}
		var id = KissBytesToUint16(output[:2])

		state.mu.Lock()
		var value, known = state.params[id]
		state.mu.Unlock()

		if !known {
			logger.Warn("Unknown parameter", "id", id)
			return false, kiss.SendNack()
		}

		logger.Info("Parameter requested", "id", id)
		return false, kiss.SetParam(id, value)

	case err == nil && header == KissHeaderSetParam:
		var id = KissBytesToUint16(output[:2])
		var value = append([]byte(nil), output[2:n]...)

		state.mu.Lock()
		state.params[id] = value
		state.mu.Unlock()

		logger.Info("Parameter stored", "id", id, "value", fmt.Sprintf("% x", value))
		return false, kiss.SendAck()

	case err == nil && header == KissHeaderCommand:
		if n < 2 {
			return false, ErrInvalidFrame
		}
		var command = binary.LittleEndian.Uint16(output[:2])

		logger.Info("Command", "command", fmt.Sprintf("0x%04x", command))

		if ackErr := kiss.SendAck(); ackErr != nil {
			return false, ackErr
		}

		return command == exchangeCommandReboot, nil

	case err == nil && kiss.LastFrameKind() == KissFramePing:
		logger.Info("Ping")
		return false, kiss.SendAck()

	case err == nil:
		logger.Info("Frame", "header", KissHeaderName(header), "bytes", n)
		return false, nil

	default:
		return false, err
	}
}

func exchangeDecode(kiss *KissInstance, output []byte) (int, byte, error) {
	if kiss.CrcEnabled() {
		return kiss.DecodeCrc32(output)
	}

	return kiss.Decode(output)
}
