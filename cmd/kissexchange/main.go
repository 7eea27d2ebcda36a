/* OBC/EPS control protocol exchange demonstration */
package main

import (
	kisslink "github.com/doismellburning/kisslink/src"
)

func main() {
	kisslink.KissExchangeMain()
}
