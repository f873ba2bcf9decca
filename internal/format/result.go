package format

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatCall prints a raw RPC result.
func FormatCall(w io.Writer, endpoint, method string, result json.RawMessage, latency time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s      %s\n", Cyan("Method:"), Bold(method))
	fmt.Fprintf(w, "  %s    %s\n", Cyan("Endpoint:"), endpoint)
	fmt.Fprintf(w, "  %s     %s\n", Cyan("Latency:"), ColorLatency(latency.Milliseconds()))
	fmt.Fprintln(w)

	var pretty interface{}
	if err := json.Unmarshal(result, &pretty); err == nil {
		if b, err := json.MarshalIndent(pretty, "  ", "  "); err == nil {
			fmt.Fprintf(w, "  %s\n\n", string(b))
			return
		}
	}
	fmt.Fprintf(w, "  %s\n\n", string(result))
}

// Cost is one cost field as it will be sent.
type Cost struct {
	Field     string
	Sent      string
	Estimated bool // false when the caller supplied the value
}

// FormatEstimate prints the cost fields Post would attach to a transaction.
func FormatEstimate(w io.Writer, multiplier string, costs []Cost) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", Bold("Transaction Cost"))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	for _, c := range costs {
		sent, err := rpc.ParseHexBigInt(c.Sent)
		if err != nil {
			fmt.Fprintf(w, "  %s %s\n", Cyan(padRight(c.Field+":", 10)), c.Sent)
			continue
		}
		display := sent.String()
		if c.Field == "gasPrice" {
			display = rpc.FormatGwei(sent)
		}
		if !c.Estimated {
			fmt.Fprintf(w, "  %s %s %s\n", Cyan(padRight(c.Field+":", 10)), display, Dim("(caller)"))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", Cyan(padRight(c.Field+":", 10)), Green(display),
			Dim(fmt.Sprintf("(node estimate × %s, %s)", multiplier, c.Sent)))
	}
	fmt.Fprintln(w)
}

// FormatBalance prints a token balance.
func FormatBalance(w io.Writer, token rpc.Token, holder string, raw *big.Int, endpoint string, latency time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", Bold(fmt.Sprintf("%s Balance Query", token.Symbol)))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s      %s\n", Cyan("Contract:"), truncateHash(token.Address))
	fmt.Fprintf(w, "  %s       %s\n", Cyan("Address:"), holder)
	fmt.Fprintf(w, "  %s       %s\n", Cyan("Balance:"), Green(rpc.FormatTokenAmount(raw, token.Decimals, token.Symbol)))
	if raw != nil {
		fmt.Fprintf(w, "  %s   %s (raw)\n", Cyan("Raw Amount:"), raw.String())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s    %s (%dms)\n", Cyan("Fetched via:"), endpoint, latency.Milliseconds())
	fmt.Fprintln(w)
}

// FormatEvent prints one identity change as a log line.
func FormatEvent(w io.Writer, at time.Time, kind, value string) {
	if value == "" {
		value = Dim("(none)")
	}
	fmt.Fprintf(w, "%s  %s  %s\n", Dim(at.Format("15:04:05")), Yellow(padRight(kind, 14)), value)
}

// FormatError prints a failed call with its classification.
func FormatError(w io.Writer, err error) {
	kind := rpc.KindOf(err)
	fmt.Fprintf(w, "%s %s %v\n", Red("✗"), ColorKind(kind), err)
}
