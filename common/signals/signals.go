// Package signals stops a tool's work when it is asked to terminate.
package signals

import (
	"os"
	"os/signal"

	"github.com/mongodb/mongo-reply-tools/common/log"
)

// Handle calls terminate once when the process receives a termination
// signal. The returned function stops listening.
func Handle(terminate func()) (stop func()) {
	// make the chan buffered to avoid a race where the signal comes in after we start notifying but before we start listening
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, terminationSignals...)
	go func() {
		select {
		case sig := <-sigChan:
			log.Logvf(log.Always, "signal '%s' received; attempting to shut down", sig)
			terminate()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
