/* Interactive client for a KISS framing peer */
package main

import (
	kisslink "github.com/doismellburning/kisslink/src"
)

func main() {
	kisslink.KissUtilMain()
}
