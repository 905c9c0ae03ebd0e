package signals

import (
	"os"
)

var terminationSignals = []os.Signal{os.Interrupt}
