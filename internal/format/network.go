package format

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// NetworkResult is one endpoint's answer to net_version.
type NetworkResult struct {
	Endpoint string
	Version  string
	Latency  time.Duration
	Err      error
}

// FormatNetworks renders a table of endpoints and the network each one is on.
// Endpoints that disagree with the first healthy one are flagged.
func FormatNetworks(w io.Writer, results []NetworkResult) {
	fmt.Fprintln(w, Bold("Network Versions"))

	reference := ""
	for _, r := range results {
		if r.Err == nil {
			reference = r.Version
			break
		}
	}

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Endpoint", "Network", "Latency", "Status")
	tbl.WithHeaderFormatter(headerFmt).WithWriter(w)

	for _, r := range results {
		if r.Err != nil {
			tbl.AddRow(r.Endpoint, Dim("—"), Dim("—"), ColorKind(rpc.KindOf(r.Err)))
			continue
		}
		status := Green("OK")
		if r.Version != reference {
			status = Yellow("MISMATCH")
		}
		tbl.AddRow(r.Endpoint, r.Version, ColorLatency(r.Latency.Milliseconds()), status)
	}

	tbl.Print()
	fmt.Fprintln(w)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "  %s %s: %v\n", Red("✗"), r.Endpoint, r.Err)
		}
	}
}

// NetworksJSON is the machine-readable form of FormatNetworks.
func NetworksJSON(results []NetworkResult) []map[string]interface{} {
	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := map[string]interface{}{"endpoint": r.Endpoint}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
			entry["kind"] = string(rpc.KindOf(r.Err))
		} else {
			entry["network"] = r.Version
			entry["latencyMs"] = r.Latency.Milliseconds()
		}
		out[i] = entry
	}
	return out
}
