package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape codes to get actual visible length
func stripANSI(str string) string {
	return ansiRegex.ReplaceAllString(str, "")
}

// padRight pads a colored string to ensure it displays at the specified width
func padRight(str string, width int) string {
	visibleLen := len(stripANSI(str))
	if visibleLen < width {
		return str + strings.Repeat(" ", width-visibleLen)
	}
	return str
}

// DisableColors turns off colour for machine-readable output.
func DisableColors() {
	color.NoColor = true
}

func ColorLatency(ms int64) string {
	switch {
	case ms < 100:
		return Green(fmt.Sprintf("%dms", ms))
	case ms < 300:
		return Yellow(fmt.Sprintf("%dms", ms))
	default:
		return Red(fmt.Sprintf("%dms", ms))
	}
}

// ColorKind colours an error kind by who is at fault: the network in red,
// the transaction in yellow, anything unclassified dimmed.
func ColorKind(kind rpc.Kind) string {
	switch kind {
	case rpc.KindTransport, rpc.KindProtocolAnomaly:
		return Red(string(kind))
	case rpc.KindExecutionReverted, rpc.KindInsufficientFunds, rpc.KindNonceTooLow, rpc.KindUnauthorized:
		return Yellow(string(kind))
	case "":
		return Dim("—")
	default:
		return Dim(string(kind))
	}
}

func truncateHash(hash string) string {
	if len(hash) <= 18 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-6:]
}
