package writer

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uilive"
	"github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"token-watch/chart"
	"token-watch/config"
	"token-watch/token"
)

// Shown in place of every field of a token that has no snapshot yet. Once a
// snapshot exists the row is only ever replaced wholesale.
const placeholder = "Fetching..."

var faint = color.New(color.Faint).SprintFunc()

type tableWriter struct {
	*uilive.Writer
	table *tablewriter.Table
}

// Set up ascii table writer
func NewTableWriter() *tableWriter {
	tw := &tableWriter{Writer: uilive.New()}
	tw.Writer.Out = colorable.NewColorableStdout() // For Windows
	tw.table = tablewriter.NewWriter(tw.Writer)
	tw.table.SetAutoFormatHeaders(false)
	tw.table.SetAutoWrapText(false)
	headers := viper.GetStringSlice("show")
	formattedHeaders := make([]string, len(headers))
	for i, hdr := range headers {
		formattedHeaders[i] = color.YellowString(hdr)
	}
	tw.table.SetHeader(formattedHeaders)
	tw.table.SetRowLine(true)
	tw.table.SetCenterSeparator(faint("-"))
	tw.table.SetColumnSeparator(faint("|"))
	tw.table.SetRowSeparator(faint("-"))
	return tw
}

func (tw *tableWriter) highlightChange(changePct decimal.Decimal) string {
	changeText := changePct.StringFixed(2)
	if changePct.IsZero() {
		changeText = faint("0")
	} else if changePct.Sign() > 0 {
		changeText = color.GreenString(changeText)
	} else {
		changeText = color.RedString(changeText)
	}
	return changeText
}

// Render redraws the table in place, with one summary line per series below
// it. Tokens and snapshots line up by index; a nil snapshot renders
// per-field placeholders, so a token whose very first fetch failed still
// gets a visible row. Everything goes through the same uilive buffer, so a
// redraw repaints table and summaries together.
func (tw *tableWriter) Render(tokens []*config.TokenDescriptor, snapshots []*token.Snapshot, seriesList ...*chart.Series) {
	tw.table.ClearRows()
	for i, tok := range tokens {
		var snapshot *token.Snapshot
		if i < len(snapshots) {
			snapshot = snapshots[i]
		}
		tw.table.Append(tw.row(tok, snapshot))
	}
	tw.table.Render()
	for _, series := range seriesList {
		tw.renderSeries(series)
	}
	tw.Flush()
}

func (tw *tableWriter) row(tok *config.TokenDescriptor, snapshot *token.Snapshot) []string {
	var columns []string
	for _, hdr := range viper.GetStringSlice("show") {
		if snapshot == nil {
			if strings.EqualFold(hdr, config.ColumnSymbol) {
				columns = append(columns, tok.Symbol)
			} else {
				columns = append(columns, faint(placeholder))
			}
			continue
		}
		switch strings.ToLower(hdr) {
		case strings.ToLower(config.ColumnSymbol):
			columns = append(columns, snapshot.Token.Symbol)
		case strings.ToLower(config.ColumnPrice):
			columns = append(columns, "$"+snapshot.PriceUSD.StringFixed(2))
		case strings.ToLower(config.ColumnMarketCap):
			columns = append(columns, "$"+snapshot.MarketCapUSD.StringFixed(2))
		case strings.ToLower(config.ColumnVolume):
			columns = append(columns, "$"+snapshot.Volume24hUSD.StringFixed(2))
		case strings.ToLower(config.ColumnChange24hPct):
			columns = append(columns, tw.highlightChange(snapshot.Change24hPct))
		case strings.ToLower(config.ColumnUpdated):
			columns = append(columns, snapshot.LastUpdatedAt.Local().Format("15:04:05"))
		default:
			fmt.Fprintf(os.Stderr, "Unknown column: %s\n", hdr)
			os.Exit(1)
		}
	}
	return columns
}

// renderSeries prints a one-line summary of a series. The chart widget
// proper is an external sink; this is the terminal stand-in.
func (tw *tableWriter) renderSeries(series *chart.Series) {
	if series == nil || len(series.Points) == 0 {
		return
	}
	first, last := series.Points[0], series.Points[len(series.Points)-1]
	low, high := first.Price, first.Price
	for _, p := range series.Points {
		if p.Price < low {
			low = p.Price
		}
		if p.Price > high {
			high = p.Price
		}
	}
	label := series.Label
	switch series.Color {
	case chart.Blue:
		label = color.BlueString(label)
	case chart.Red:
		label = color.RedString(label)
	}
	fmt.Fprintf(tw.Writer, "%s  %d samples  %s - %s  low $%.2f  high $%.2f  last $%.2f\n",
		label, len(series.Points),
		first.Time.Local().Format("01/02 15:04"), last.Time.Local().Format("01/02 15:04"),
		low, high, last.Price)
}
