package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/ledger"
)

// Console escribe reportes de backtest y estado live a stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// PrintBacktestReport imprime el resumen completo de un backtest.
func (c *Console) PrintBacktestReport(led *ledger.Ledger, marketsScanned, marketsSkipped int) {
	trades := led.ClosedPositions()

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  BACKTEST REPORT\n")
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  Markets scanned:   %d\n", marketsScanned)
	fmt.Fprintf(c.out, "  Markets skipped:   %d\n", marketsSkipped)
	fmt.Fprintf(c.out, "  Trades:            %d\n\n", len(trades))

	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  No trades executed — nothing else to report.")
		return
	}

	if c.table {
		c.printTradesTable(trades)
	}

	c.printSummary(led, trades)
}

// printTradesTable imprime una fila por trade cerrado.
func (c *Console) printTradesTable(trades []domain.Position) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Tier", "Entry", "Exit", "Reason", "Held", "PnL", "PnL%")

	for i, tr := range trades {
		exit := "-"
		if tr.ExitPrice != nil {
			exit = fmt.Sprintf("%.3f", *tr.ExitPrice)
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateQuestion(tr.Market.Question, tr.Market.ConditionID, 38),
			tr.TierName,
			fmt.Sprintf("%.3f", tr.EntryPrice),
			exit,
			string(tr.ExitReason),
			fmt.Sprintf("%.1fh", tr.HoldingHours()),
			fmt.Sprintf("$%+.2f", tr.PnL()),
			fmt.Sprintf("%+.1f%%", tr.PnLPct()*100),
		)
	}

	table.Render()
	fmt.Fprintln(c.out)
}

// printSummary imprime los agregados: win rate, PnL por motivo de salida,
// drawdown de la curva de equity.
func (c *Console) printSummary(led *ledger.Ledger, trades []domain.Position) {
	var totalPnL, totalFees, grossWin, grossLoss float64
	wins := 0
	byReason := make(map[domain.ExitReason]int)

	for _, tr := range trades {
		pnl := tr.PnL()
		totalPnL += pnl
		totalFees += tr.FeesPaid
		byReason[tr.ExitReason]++
		if pnl > 0 {
			wins++
			grossWin += pnl
		} else {
			grossLoss += -pnl
		}
	}

	winRate := float64(wins) / float64(len(trades)) * 100
	initial := led.InitialCapital()
	final := led.TotalValue()

	fmt.Fprintf(c.out, "  --- PERFORMANCE ---\n")
	fmt.Fprintf(c.out, "  Initial capital:   $%.2f\n", initial)
	fmt.Fprintf(c.out, "  Final value:       $%.2f\n", final)
	fmt.Fprintf(c.out, "  Total PnL:         $%+.2f (%+.2f%%)\n", totalPnL, totalPnL/initial*100)
	fmt.Fprintf(c.out, "  Fees paid:         $%.2f\n", totalFees)
	fmt.Fprintf(c.out, "  Win rate:          %.1f%% (%d/%d)\n", winRate, wins, len(trades))
	if grossLoss > 0 {
		fmt.Fprintf(c.out, "  Profit factor:     %.2f\n", grossWin/grossLoss)
	}
	fmt.Fprintf(c.out, "  Max drawdown:      %.2f%%\n", maxDrawdownPct(led.EquityCurve())*100)

	fmt.Fprintf(c.out, "\n  --- EXITS ---\n")
	for _, reason := range sortedReasons(byReason) {
		fmt.Fprintf(c.out, "  %-14s %d\n", string(reason)+":", byReason[reason])
	}

	if totalPnL > 0 {
		fmt.Fprintf(c.out, "\n  VERDICT: net positive over the replayed history\n\n")
	} else {
		fmt.Fprintf(c.out, "\n  VERDICT: net negative — review the parameters before going live\n\n")
	}
}

// PrintLiveStatus imprime una línea compacta con el estado del modo live.
func (c *Console) PrintLiveStatus(led *ledger.Ledger, riskStatus string) {
	now := time.Now().Format("15:04:05")
	open := led.OpenPositions()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s][LIVE] %d open | cash $%.2f | exposure $%.2f | value $%.2f | %s",
		now, len(open), led.Cash(), led.TotalExposure(), led.TotalValue(), riskStatus)

	shown := 0
	for _, pos := range open {
		if shown >= 3 {
			break
		}
		marker := ""
		if pos.SoftStopTriggeredAt != nil {
			marker = " !stop-armed"
		}
		fmt.Fprintf(&sb, "\n  %s @%.3f%s",
			domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 40),
			pos.EntryPrice, marker)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// --- helpers ---

// maxDrawdownPct calcula el peor drawdown relativo de la curva de equity.
func maxDrawdownPct(curve []ledger.EquityPoint) float64 {
	peak, worst := 0.0, 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func sortedReasons(byReason map[domain.ExitReason]int) []domain.ExitReason {
	reasons := make([]domain.ExitReason, 0, len(byReason))
	for r := range byReason {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}
