package kisslink

/*------------------------------------------------------------------
 *
 * Purpose:   	Configuration file handling for the command line tools.
 *
 * Description:	A small YAML file sets up the link: transport, framing
 *		options, retry budget.  Command line flags override it.
 *		The engine itself never reads configuration; everything
 *		funnels through KissInit.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type KissConfig struct {
	/* Transport: a serial device, or a TCP host/port. */
	Device   string `yaml:"device"`
	Hostname string `yaml:"hostname"`
	Port     string `yaml:"port"`

	SerialSpeed int `yaml:"serial_speed"`

	/* Framing. */
	TxDelay    int  `yaml:"tx_delay"` /* 10 ms units, 0 - 255. */
	Padding    int  `yaml:"padding"`  /* Leading sync FENDs, 0 - 32. */
	CrcEnabled bool `yaml:"crc"`

	/* Receive loop. */
	MaxAttempts int `yaml:"max_attempts"`
	BufferSize  int `yaml:"buffer_size"`
}

// DefaultConfig matches a plain localhost soft TNC setup.
func DefaultConfig() KissConfig {
	return KissConfig{
		Hostname:    "localhost",
		Port:        "8001",
		SerialSpeed: 9600,
		TxDelay:     30,
		Padding:     0,
		CrcEnabled:  false,
		MaxAttempts: 100,
		BufferSize:  2048,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        LoadConfig
 *
 * Purpose:     Read a YAML configuration file over the defaults.
 *
 * Inputs:	path	- File name.  A missing file is fine (pure
 *			  defaults); a malformed one is an error.
 *
 *-------------------------------------------------------------------*/

func LoadConfig(path string) (KissConfig, error) {
	var config = DefaultConfig()

	var data, err = os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("kiss: could not read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("kiss: could not parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c *KissConfig) Validate() error {
	if c.TxDelay < 0 || c.TxDelay > 255 {
		return fmt.Errorf("%w: tx_delay %d out of range 0-255", ErrInvalidParams, c.TxDelay)
	}

	if c.Padding < 0 || c.Padding > KissMaxPadding {
		return fmt.Errorf("%w: padding %d out of range 0-%d", ErrPaddingOverflow, c.Padding, KissMaxPadding)
	}

	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalidParams)
	}

	if c.BufferSize < KissMinFrameLen {
		return fmt.Errorf("%w: buffer_size %d too small", ErrInvalidParams, c.BufferSize)
	}

	return nil
}
