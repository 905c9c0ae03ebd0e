// Main package for the replydump tool.
package main

import (
	"os"

	"github.com/mongodb/mongo-reply-tools/common/log"
	"github.com/mongodb/mongo-reply-tools/common/options"
	"github.com/mongodb/mongo-reply-tools/common/signals"
	"github.com/mongodb/mongo-reply-tools/common/util"
	"github.com/mongodb/mongo-reply-tools/replydump"
)

func main() {
	// initialize command-line opts
	opts := options.New("replydump", replydump.Usage, options.EnabledOptions{Connection: true})
	outputOpts := &replydump.OutputOptions{}
	if err := opts.AddOptions(outputOpts); err != nil {
		log.Logvf(log.Always, "error registering output options: %v", err)
		os.Exit(util.ExitError)
	}

	extra, err := opts.Parse()
	if err != nil {
		log.Logvf(log.Always, "error parsing command line options: %v", err)
		log.Logvf(log.Always, "try 'replydump --help' for more information")
		os.Exit(util.ExitBadOptions)
	}

	// print help, if specified
	if opts.PrintHelp(false) {
		return
	}

	// print version, if specified
	if opts.PrintVersion() {
		return
	}

	log.SetVerbosity(opts.Verbosity)

	// pull out the filename
	if len(extra) == 0 {
		opts.PrintHelp(true)
		return
	} else if len(extra) > 1 {
		log.Logv(log.Always, "too many positional arguments")
		opts.PrintHelp(true)
		os.Exit(util.ExitBadOptions)
	}

	dumper := replydump.ReplyDump{
		ToolOptions:   opts,
		OutputOptions: outputOpts,
		FileName:      extra[0],
		Out:           os.Stdout,
	}
	if err := dumper.ValidateSettings(); err != nil {
		log.Logvf(log.Always, "error validating settings: %v", err)
		os.Exit(util.ExitBadOptions)
	}

	dumper.Init()
	stop := signals.Handle(dumper.Kill)
	defer stop()

	log.Logvf(log.DebugLow, "running replydump on %v input", outputOpts.Type)

	stats, err := dumper.Dump()
	log.Logvf(log.Always, "%v replies resolved", stats.Replies)
	if !opts.IsQuiet() {
		replydump.WriteSummary(os.Stderr, stats)
	}
	if err == util.ErrTerminated {
		stop()
		os.Exit(util.ExitKill)
	}
	if err != nil {
		log.Logvf(log.Always, "failed: %v", err)
		stop()
		os.Exit(util.ExitError)
	}
}
