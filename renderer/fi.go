// Package renderer turns valuation and modelling results into markdown
// reports for terminal display.
package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/okrejci/worthy"
)

// FiTable renders the financial-independence projection as a markdown
// table: one column per assumed yearly yield, one row per monthly spending
// goal, plus a row of perpetual withdrawals the total sustains forever.
func FiTable(total worthy.Asset, modelling worthy.ModellingConfig, base worthy.Denomination, factors map[worthy.Denomination]decimal.Decimal, now time.Time) (string, error) {
	goals := make([]worthy.Asset, 0, len(modelling.MonthlyTargets))
	for _, t := range modelling.MonthlyTargets {
		goal, err := t.Asset()
		if err != nil {
			return "", err
		}
		goals = append(goals, goal)
	}
	saving := worthy.Asset{Amount: decimal.Zero, Denomination: base}
	if modelling.MonthlySaving.Amount != "" {
		var err error
		if saving, err = modelling.MonthlySaving.Asset(); err != nil {
			return "", err
		}
	}

	toBase := func(a worthy.Asset) (decimal.Decimal, error) {
		factor, ok := factors[a.Denomination]
		if !ok {
			return decimal.Zero, fmt.Errorf("no conversion factor for %s", a.Denomination)
		}
		return a.Amount.Mul(factor), nil
	}

	totalBase, err := toBase(total)
	if err != nil {
		return "", err
	}
	savingBase, err := toBase(saving)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("∑ %s", total))
	doc.PlainText(fmt.Sprintf("Horizon: %v years", modelling.HorizonYears))

	header := []string{"Monthly goal \\ Yearly yield"}
	for _, yield := range modelling.YearlyYields {
		header = append(header, fmt.Sprintf("%.2f%%", yield*100))
	}

	var rows [][]string
	rows = append(rows, perpetualsRow(total, modelling, factors, goalDenominations(goals)))

	horizon := decimal.NewFromFloat(modelling.HorizonYears)
	for _, goal := range goals {
		goalBase, err := toBase(goal)
		if err != nil {
			return "", err
		}
		row := []string{goal.String()}
		for _, yield := range modelling.YearlyYields {
			fi := worthy.Project(totalBase, decimal.NewFromFloat(yield), goalBase, savingBase, horizon)
			row = append(row, fiCell(fi, base, now))
		}
		rows = append(rows, row)
	}

	doc.Table(md.TableSet{Header: header, Rows: rows})
	return doc.String(), nil
}

// perpetualsRow lists, per yield column, the monthly amount the total
// sustains forever, converted to each goal denomination.
func perpetualsRow(total worthy.Asset, modelling worthy.ModellingConfig, factors map[worthy.Denomination]decimal.Decimal, denominations []worthy.Denomination) []string {
	row := []string{"Perpetuals"}
	for _, yield := range modelling.YearlyYields {
		var cells []string
		for _, d := range denominations {
			perpetual, err := worthy.Perpetual(total, decimal.NewFromFloat(yield), factors, d)
			if err != nil {
				cells = append(cells, fmt.Sprintf("%s: n/a", d))
				continue
			}
			cells = append(cells, perpetual.String())
		}
		row = append(row, strings.Join(cells, "<br>"))
	}
	return row
}

// goalDenominations keeps the first-seen order so the table is stable
// across runs.
func goalDenominations(goals []worthy.Asset) []worthy.Denomination {
	var out []worthy.Denomination
	seen := make(map[worthy.Denomination]bool)
	for _, g := range goals {
		if seen[g.Denomination] {
			continue
		}
		seen[g.Denomination] = true
		out = append(out, g.Denomination)
	}
	return out
}

func fiCell(fi worthy.FiInfo, base worthy.Denomination, now time.Time) string {
	if fi.State == worthy.Reached {
		return fmt.Sprintf("✓ %s of target", fi.Overreach)
	}
	need := worthy.Asset{Amount: fi.Target, Denomination: base}
	cell := fmt.Sprintf("💰 ≥%s", need)
	if fi.Durability == worthy.Forever {
		cell += ", lasts forever"
	} else {
		cell += fmt.Sprintf(", lasts until %s", fi.ExhaustionDate(now).Format("2006-01-02"))
	}
	if fi.GoalUnreachable {
		cell += ", goal unreachable"
	} else {
		cell += fmt.Sprintf(", goal by %s", fi.ReachDate(now).Format("2006-01-02"))
	}
	return cell
}
