package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mcoot/numberguess/internal/model"
)

type bannerInfo struct {
	Game    string
	HTTP    string
	Chat    string
	Range   model.Range
	Storage string
	RunID   string
}

var (
	titleColor = color.New(color.FgYellow, color.Bold)
	labelColor = color.New(color.FgCyan)
	valueColor = color.New(color.FgWhite, color.Bold)
)

func printBanner(w io.Writer, info bannerInfo) {
	titleColor.Fprintln(w, `
╔═══════════════════════════════════════╗
║         MYSTERY NUMBER SERVER         ║
╚═══════════════════════════════════════╝`)

	row := func(label, value string) {
		labelColor.Fprintf(w, "  %-10s", label)
		valueColor.Fprintln(w, value)
	}
	row("game", info.Game)
	row("http", info.HTTP)
	row("chat", info.Chat+" (udp)")
	row("range", fmt.Sprintf("%d-%d", info.Range.Min, info.Range.Max))
	row("storage", info.Storage)
	row("run", info.RunID)
	fmt.Fprintln(w)
}
