/* KISS codec throughput measurement */
package main

import (
	kisslink "github.com/doismellburning/kisslink/src"
)

func main() {
	kisslink.KissSpeedMain()
}
