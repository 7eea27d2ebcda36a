package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Utility for talking to a KISS peer.
 *
 * Description:	Interactive command line client.  The peer can be
 *		attached by TCP or a serial port.  Lines typed on stdin
 *		become frames; frames arriving from the peer are printed,
 *		optionally with a time stamp.
 *
 * Usage:	kissutil [ options ]
 *
 *		Default is to connect to localhost:8001.
 *
 *		Commands:
 *
 *			ping / ack / nack	control micro-frames
 *			txdelay N		set TX delay, 10 ms units
 *			speed N			link speed advisory, bps
 *			command N		two byte command value
 *			get ID			request parameter
 *			set ID XX XX ...	set parameter to hex bytes
 *			N:text			data frame on port N
 *			text			data frame on port 0
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
)

func KissUtilMain() {
	var configFile = pflag.StringP("config-file", "c", "kissutil.yaml", "Configuration file name.")
	var hostname = pflag.StringP("hostname", "h", "", "Hostname of TCP KISS peer.")
	var port = pflag.StringP("port", "p", "", "Port. If it does not start with a digit, it is treated as a serial port, e.g. /dev/ttyAMA0")
	var serialSpeed = pflag.IntP("serial-speed", "s", 0, "Serial port speed.")
	var crc = pflag.Bool("crc", false, "Frames carry a trailing CRC32.")
	var txDelay = pflag.Int("tx-delay", -1, "TX delay in 10 ms units.")
	var padding = pflag.Int("padding", -1, "Leading sync FENDs per frame, 0-32.")
	var attempts = pflag.Int("attempts", 0, "Read attempts per receive.")
	var verbose = pflag.BoolP("verbose", "v", false, "Verbose. Show the KISS frame contents.")
	var timestampFormat = pflag.StringP("timestamp-format", "T", "", "Precede received frames with 'strftime' format time stamp.")
	var version = pflag.Bool("version", false, "Print version and exit.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - interactive client for a KISS framing peer.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: kissutil [options]\n")
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

	var config, configErr = LoadConfig(*configFile)
	if configErr != nil {
		log.Fatal("Bad configuration", "error", configErr)
	}

	/* Flags override the file. */

	if *hostname != "" {
		config.Hostname = *hostname
	}
	if *port != "" {
		config.Port = *port
	}
	if *serialSpeed != 0 {
		config.SerialSpeed = *serialSpeed
	}
	if *crc {
		config.CrcEnabled = true
	}
	if *txDelay >= 0 {
		config.TxDelay = *txDelay
	}
	if *padding >= 0 {
		config.Padding = *padding
	}
	if *attempts > 0 {
		config.MaxAttempts = *attempts
	}

	if err := config.Validate(); err != nil {
		log.Fatal("Bad configuration", "error", err)
	}

	/*
	 * An explicit device means serial.  So does a port that does not
	 * start with a digit, e.g. -p /dev/ttyAMA0.
	 */

	var device = config.Device
	if device == "" && len(config.Port) > 0 && (config.Port[0] < '0' || config.Port[0] > '9') {
		device = config.Port
	}

	var write KissWriteFunc
	var read KissReadFunc

	if device != "" {
		var serial, err = SerialOpen(device, config.SerialSpeed)
		if err != nil {
			log.Fatal("Could not open serial port", "port", device, "error", err)
		}
		defer serial.Close()

		write = SerialWriteFunc(serial)
		read = SerialReadFunc(serial)

		log.Info("Connected", "serial", device, "speed", config.SerialSpeed)
	} else {
		var conn, err = NetOpen(config.Hostname, config.Port)
		if err != nil {
			log.Fatal("Could not connect", "error", err)
		}
		defer conn.Close()

		write = NetWriteFunc(conn)
		read = NetReadFunc(conn)

		log.Info("Connected", "host", config.Hostname, "port", config.Port)
	}

	/*
	 * Independent transmit and receive instances so received frames
	 * can be printed while the user is composing.  Each instance is
	 * single threaded; the two only share the socket.
	 */

	var txKiss, rxKiss KissInstance

	if err := KissInit(&txKiss, make([]byte, config.BufferSize), byte(config.TxDelay), byte(config.Padding), config.CrcEnabled, write, nil, nil); err != nil {
		log.Fatal("KissInit failed", "error", err)
	}

	if err := KissInit(&rxKiss, make([]byte, config.BufferSize), byte(config.TxDelay), byte(config.Padding), config.CrcEnabled, write, read, nil); err != nil {
		log.Fatal("KissInit failed", "error", err)
	}

	go receiveLoop(&rxKiss, config, *verbose, *timestampFormat)

	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := runUtilCommand(&txKiss, line); err != nil {
			log.Error("Command failed", "command", line, "error", err)
		} else if *verbose {
			KissDebugPrint(KissToPeer, txKiss.Frame())
		}
	}
}

func runUtilCommand(kiss *KissInstance, line string) error {
	var fields = strings.Fields(line)
	var arg = ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "ping":
		return kiss.SendPing()
	case "ack":
		return kiss.SendAck()
	case "nack":
		return kiss.SendNack()

	case "txdelay":
		var n, err = strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return fmt.Errorf("%w: txdelay wants 0-255", ErrInvalidParams)
		}
		return kiss.SendTxDelay(byte(n))

	case "speed":
		var n, err = strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: speed wants a bit rate", ErrInvalidParams)
		}
		return kiss.SendSpeed(uint32(n))

	case "command":
		var n, err = strconv.ParseUint(arg, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: command wants 0-65535", ErrInvalidParams)
		}
		return kiss.SendCommand(uint16(n))

	case "get":
		var id, err = strconv.ParseUint(arg, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: get wants a parameter ID", ErrInvalidParams)
		}

		/* Send the request only; the reply comes back through the
		   receive loop like any other frame. */
		var idBytes [2]byte
		binary.LittleEndian.PutUint16(idBytes[:], uint16(id))

		return kiss.EncodeAndSend(idBytes[:], KissHeaderRequestParam)

	case "set":
		return utilSetParam(kiss, fields[1:])
	}

	/* Data frame, optionally "N:text" to pick a port. */

	var port = byte(0)
	var text = line

	if before, after, found := strings.Cut(line, ":"); found {
		if n, err := strconv.ParseUint(before, 10, 8); err == nil && n <= KissMaxPort {
			port = byte(n)
			text = after
		}
	}

	return kiss.EncodeAndSend([]byte(text), KissHeaderData(port))
}

func utilSetParam(kiss *KissInstance, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set wants an ID and at least one hex byte", ErrInvalidParams)
	}

	var id, err = strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return fmt.Errorf("%w: set wants a parameter ID", ErrInvalidParams)
	}

	var value = make([]byte, 0, len(args)-1)
	for _, hex := range args[1:] {
		var b, parseErr = strconv.ParseUint(hex, 16, 8)
		if parseErr != nil {
			return fmt.Errorf("%w: bad hex byte %q", ErrInvalidParams, hex)
		}
		value = append(value, byte(b))
	}

	return kiss.SetParam(uint16(id), value)
}

func receiveLoop(kiss *KissInstance, config KissConfig, verbose bool, timestampFormat string) {
	var output = make([]byte, config.BufferSize)

	for {
		var n, header, err = kiss.ReceiveAndDecode(output, config.MaxAttempts)

		switch {
		case err == nil:
			var prefix = ""
			if timestampFormat != "" {
				if formatted, tsErr := strftime.Format(timestampFormat, time.Now()); tsErr == nil {
					prefix = "[" + formatted + "] "
				}
			}

			var printed = false

			if header == KissHeaderSetParam || header == KissHeaderRequestParam {
				/* Status is still RECEIVED after a successful decode,
				   so the parameter split can reuse the frame. */
				var value = make([]byte, config.BufferSize)
				if id, valueLen, paramErr := kiss.ExtractParam(value); paramErr == nil {
					fmt.Printf("%s%s id %d: % x\n", prefix, KissHeaderName(header), id, value[:valueLen])
					printed = true
				}
			}

			if !printed {
				fmt.Printf("%s%s (%d bytes): %s\n", prefix, KissHeaderName(header), n, printable(output[:n]))
			}

			if verbose {
				KissDebugPrint(KissFromPeer, kiss.Frame())
			}

			if kiss.LastFrameKind() == KissFramePing {
				if ackErr := kiss.SendAck(); ackErr != nil {
					log.Error("Could not answer ping", "error", ackErr)
				}
			}

		case errors.Is(err, ErrNoDataReceived):
			/* Quiet link.  Go around again. */

		default:
			log.Error("Receive failed", "error", err)
			time.Sleep(time.Second)
		}
	}
}

func printable(data []byte) string {
	var sb strings.Builder

	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "<0x%02x>", b)
		}
	}

	return sb.String()
}
