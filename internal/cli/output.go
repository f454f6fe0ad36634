package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
)

var (
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	labelColor   = color.New(color.FgCyan).SprintFunc()
	boldColor    = color.New(color.Bold).SprintFunc()
)

const lamportsPerSOL = 1_000_000_000

func printInfo(w io.Writer, name string, info mint.Info) {
	fmt.Fprintln(w, boldColor(name))
	fmt.Fprintf(w, "%s %s\n", labelColor("Candy machine:"), info.CandyMachine)
	fmt.Fprintf(w, "%s %d / %d minted\n", labelColor("Supply:"), info.ItemsRedeemed, info.ItemsAvailable)
	fmt.Fprintf(w, "%s %d\n", labelColor("Remaining:"), info.ItemsRemaining)
	fmt.Fprintf(w, "%s %g tokens\n", labelColor("Price:"), info.Price)
	if info.ItemsRemaining == 0 {
		fmt.Fprintln(w, warnColor("Sold out"))
	}
}

func printBalance(w io.Writer, wallet string, lamports uint64, tb candymachine.TokenBalance) {
	fmt.Fprintf(w, "%s %s\n", labelColor("Wallet:"), wallet)
	fmt.Fprintf(w, "%s %.4f SOL\n", labelColor("Balance:"), float64(lamports)/lamportsPerSOL)
	fmt.Fprintf(w, "%s %g\n", labelColor("Payment token:"), tb.UIAmount)
}

func printQuote(w io.Writer, q mint.Quote) {
	fmt.Fprintf(w, "%s %d NFT(s) for %g tokens, reserve %.2f SOL for fees\n",
		labelColor("Quote:"), q.Count, q.Tokens, float64(q.FeeReserve)/lamportsPerSOL)
}

func printAttempt(w io.Writer, index int, a mint.AttemptResult) {
	if a.Success {
		fmt.Fprintf(w, "%s #%d asset %s tx %s (%s)\n",
			successColor("Minted"), index, a.MintedAsset, a.Signature, a.Duration.Round(10*time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%s #%d %s\n", errorColor("Failed"), index, a.ErrorMessage)
}

func printBatch(w io.Writer, r mint.BatchResult) {
	for i, a := range r.Attempts {
		printAttempt(w, i+1, a)
	}
	summary := fmt.Sprintf("Minted %d of %d", r.TotalMinted, r.TotalRequested)
	switch {
	case r.Aborted:
		fmt.Fprintln(w, warnColor(summary+" (stopped: insufficient funds)"))
	case r.Success():
		fmt.Fprintln(w, successColor(summary))
	default:
		fmt.Fprintln(w, errorColor(summary))
	}
	for _, e := range r.Errors {
		fmt.Fprintln(w, "  "+e)
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
