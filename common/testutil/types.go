package testutil

import (
	"flag"
	"strings"
	"testing"
)

const (
	// Integration tests read capture files from disk and run whole tools
	// end to end.
	IntegrationTestType = "integration"

	// Unit tests don't require anything outside the process. They may still
	// do file I/O on temporary files.
	UnitTestType = "unit"
)

var (
	// the types of tests that should be run
	testTypes = flag.String("test.types", UnitTestType, "Comma-separated list of the"+
		" types of tests to be run")
	// above, split on the comma
	testTypesParsed []string
)

func HasTestType(testType string) bool {
	// parse if necessary
	if testTypesParsed == nil {
		testTypesParsed = strings.Split(*testTypes, ",")
	}

	// skip the test if the passed-in type is not being run
	for _, typ := range testTypesParsed {
		if typ == testType {
			return true
		}
	}
	return false
}

// Skip the test if the specified type is not being run.
func VerifyTestType(t *testing.T, testType string) {
	if !HasTestType(testType) {
		t.SkipNow()
	}
}
