// Package options implements command-line options that are used by all of
// the reply tools.
package options

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"go.mongodb.org/mongo-driver/mongo/address"
)

const (
	VersionStr = "0.3.0"

	// DefaultHost is the server address replies are attributed to when no
	// --host is given.
	DefaultHost = "localhost"
	DefaultPort = "27017"
)

// Struct encompassing all of the options that are reused across tools: "help",
// "version", verbosity settings and the server the replies came from.
type ToolOptions struct {

	// The name of the tool
	AppName string

	// The version of the tool
	VersionStr string

	// Sub-option types
	*General
	*Verbosity
	*Connection

	// for caching the parser
	parser *flags.Parser

	// groups registered with AddOptions, validated after parsing
	extra []ExtraOptions
}

// Struct holding generic options
type General struct {
	Help    bool `long:"help" description:"print usage"`
	Version bool `long:"version" description:"print the tool version and exit"`
}

// Struct holding verbosity-related options
type Verbosity struct {
	Verbose []bool `short:"v" long:"verbose" description:"more detailed log output (include multiple times for more verbosity, e.g. -vvvvv)"`
	Quiet   bool   `long:"quiet" description:"hide all log output"`
}

func (v Verbosity) Level() int {
	return len(v.Verbose)
}

func (v Verbosity) IsQuiet() bool {
	return v.Quiet
}

// Struct holding connection-related options
type Connection struct {
	Host string `long:"host" value-name:"<hostname>" description:"server the replies were received from (can also use --host hostname:port)"`
	Port string `long:"port" value-name:"<port>" description:"server port"`
}

// ServerAddress returns the address replies should be attributed to.
func (c *Connection) ServerAddress() (address.Address, error) {
	host, port := c.Host, c.Port
	if host == "" {
		host = DefaultHost
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if port != "" && port != p {
			return "", fmt.Errorf("illegal port specification: --port %v conflicts with host %v", port, host)
		}
		host, port = h, p
	} else if strings.Contains(host, "/") || strings.Contains(host, ",") {
		return "", fmt.Errorf("replies can only be attributed to a single host, got %v", host)
	}
	if port == "" {
		port = DefaultPort
	}
	return address.Address(net.JoinHostPort(host, port)).Canonicalize(), nil
}

type EnabledOptions struct {
	Connection bool
}

// Ask for a new instance of tool options
func New(appName, usageStr string, enabled EnabledOptions) *ToolOptions {
	opts := &ToolOptions{
		AppName:    appName,
		VersionStr: VersionStr,

		General:    &General{},
		Verbosity:  &Verbosity{},
		Connection: &Connection{},
		parser: flags.NewNamedParser(
			fmt.Sprintf("%v %v", appName, usageStr), flags.None),
	}

	if _, err := opts.parser.AddGroup("general options", "", opts.General); err != nil {
		panic(fmt.Errorf("couldn't register general options: %v", err))
	}
	if _, err := opts.parser.AddGroup("verbosity options", "", opts.Verbosity); err != nil {
		panic(fmt.Errorf("couldn't register verbosity options: %v", err))
	}

	if enabled.Connection {
		if _, err := opts.parser.AddGroup("connection options", "", opts.Connection); err != nil {
			panic(fmt.Errorf("couldn't register connection options: %v", err))
		}
	}
	return opts
}

// Print the usage message for the tool to stdout.  Returns whether or not the
// help flag is specified.
func (o *ToolOptions) PrintHelp(force bool) bool {
	if o.Help || force {
		o.parser.WriteHelp(os.Stdout)
	}
	return o.Help
}

// Print the tool version to stdout.  Returns whether or not the version flag
// is specified.
func (o *ToolOptions) PrintVersion() bool {
	if o.Version {
		fmt.Printf("%v version: %v\n", o.AppName, o.VersionStr)
	}
	return o.Version
}

// Interface for extra options that need to be used by specific tools
type ExtraOptions interface {
	// Name specifying what type of options these are
	Name() string
}

// Validator is implemented by option groups that check their own values
// once parsing is done.
type Validator interface {
	Validate() error
}

// AddOptions registers an additional options group to this instance
func (o *ToolOptions) AddOptions(opts ExtraOptions) error {
	_, err := o.parser.AddGroup(opts.Name()+" options", "", opts)
	if err != nil {
		return fmt.Errorf("error setting command line options for %v: %v", opts.Name(), err)
	}
	o.extra = append(o.extra, opts)
	return nil
}

// Parse the command line args.  Returns any extra args not accounted for by
// parsing, as well as an error if the parsing returns an error.
func (o *ToolOptions) Parse() ([]string, error) {
	return o.ParseArgs(os.Args[1:])
}

// ParseArgs parses args and then validates every registered option group
// that implements Validator.
func (o *ToolOptions) ParseArgs(args []string) ([]string, error) {
	extra, err := o.parser.ParseArgs(args)
	if err != nil {
		return extra, err
	}
	for _, opts := range o.extra {
		if v, ok := opts.(Validator); ok {
			if err := v.Validate(); err != nil {
				return extra, fmt.Errorf("invalid %v options: %v", opts.Name(), err)
			}
		}
	}
	return extra, nil
}
