package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Codec throughput measurement.
 *
 * Description:	Encode and decode a stream of frames entirely in memory
 *		and report how fast the codec goes.  Useful when sizing
 *		the engine for a slow embedded peer: the wire is usually
 *		the bottleneck, but it pays to know by how much.
 *
 *		Payloads are pseudo random so escaping kicks in at a
 *		realistic rate (2 in 256 bytes need a second byte).
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func KissSpeedMain() {
	var totalBytes = pflag.Int("total-bytes", 100_000_000, "Payload bytes to push through the codec per run.")
	var frameSize = pflag.Int("frame-size", 1024, "Payload bytes per frame.")
	var crc = pflag.Bool("crc", false, "Protect each frame with a CRC32.")
	var runs = pflag.Int("runs", 3, "Number of measurement runs.")
	var decode = pflag.Bool("decode", true, "Also decode each encoded frame.")
	var output = pflag.StringP("output", "o", "", "Also send each frame to this file.")
	var version = pflag.Bool("version", false, "Print version and exit.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - KISS codec throughput measurement.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: kissspeed [options]\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *version {
		PrintVersion()
		return
	}

	if *frameSize <= 0 || *totalBytes < *frameSize {
		log.Fatal("Bad sizes", "total-bytes", *totalBytes, "frame-size", *frameSize)
	}

	var rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	var payload = make([]byte, *frameSize)
	rng.Read(payload)

	var write KissWriteFunc

	if *output != "" {
		var sink, err = os.Create(*output)
		if err != nil {
			log.Fatal("Could not create output file", "path", *output, "error", err)
		}
		defer sink.Close()

		write = func(_ *KissInstance, data []byte) error {
			var _, writeErr = sink.Write(data)
			return writeErr
		}
	}

	var kiss KissInstance
	var buffer = make([]byte, 2*(*frameSize)+2+8+KissMaxPadding)
	var decoded = make([]byte, *frameSize+4)

	if err := KissInit(&kiss, buffer, 0, 0, *crc, write, nil, nil); err != nil {
		log.Fatal("KissInit failed", "error", err)
	}

	var frames = *totalBytes / *frameSize

	log.Info("Measuring", "frames", frames, "frame-size", *frameSize, "crc", *crc, "decode", *decode)

	for run := 1; run <= *runs; run++ {
		var elapsed, err = speedRun(&kiss, payload, decoded, frames, *crc, *decode)
		if err != nil {
			log.Fatal("Codec error", "error", err)
		}

		var moved = float64(frames) * float64(*frameSize)
		var mbps = moved * 8 / elapsed.Seconds() / 1e6

		log.Info("Run complete",
			"run", run,
			"elapsed", elapsed.Round(time.Millisecond),
			"throughput", fmt.Sprintf("%.1f Mbit/s", mbps))
	}
}

func speedRun(kiss *KissInstance, payload []byte, output []byte, frames int, crc bool, decode bool) (time.Duration, error) {
	var start = time.Now()

	for i := 0; i < frames; i++ {
		var err error

		if crc {
			err = kiss.EncodeCrc32(payload, KissHeaderData(0))
		} else {
			err = kiss.Encode(payload, KissHeaderData(0))
		}
		if err != nil {
			return 0, err
		}

		if kiss.write != nil {
			if err := kiss.SendFrame(); err != nil {
				return 0, err
			}
		}

		if !decode {
			continue
		}

		/* The codec decodes whatever frame is in the buffer, no
		   matter which direction put it there. */
		kiss.status = KissReceived

		if crc {
			_, _, err = kiss.DecodeCrc32(output)
		} else {
			_, _, err = kiss.Decode(output)
		}
		if err != nil {
			return 0, err
		}
	}

	return time.Since(start), nil
}
