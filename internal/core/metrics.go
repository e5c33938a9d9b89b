package core

import "time"

// Metrics are the summary figures derived from an owner's transaction list.
// They are a pure function of the list: recomputing on an unchanged list
// yields identical results.
type Metrics struct {
	TotalBalance  Money
	TotalIncome   Money
	TotalExpenses Money // reported as a negative magnitude
	MonthlyChange Money
}

// MonthlyPoint is one month of the trailing income/expense chart series.
type MonthlyPoint struct {
	Year     int
	Month    time.Month
	Income   Money
	Expenses Money // magnitude, >= 0
}

// CategoryTotal aggregates expense magnitude per category label.
type CategoryTotal struct {
	Category string
	Total    Money // magnitude, >= 0
}

// ComputeMetrics derives the dashboard summary from the list in a single
// pass. now anchors the current calendar month; month bucketing uses the
// transaction's effective date in now's location. Whether that should be
// UTC-normalized instead is an open design question; this mirrors what the
// dashboard has always shown.
func ComputeMetrics(list []Transaction, now time.Time) Metrics {
	var m Metrics

	curYear, curMonth, _ := now.Date()
	prevYear, prevMonth := previousMonth(curYear, curMonth)

	var curSum, prevSum int64
	for _, t := range list {
		m.TotalBalance.Cents += t.Amount.Cents
		switch t.Kind {
		case Income:
			m.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			m.TotalExpenses.Cents -= t.Amount.Abs().Cents
		}

		y, mo, _ := t.EffectiveDate().In(now.Location()).Date()
		switch {
		case y == curYear && mo == curMonth:
			curSum += t.Amount.Cents
		case y == prevYear && mo == prevMonth:
			prevSum += t.Amount.Cents
		}
	}

	m.MonthlyChange.Cents = curSum - prevSum
	return m
}

// previousMonth returns the calendar month immediately before the given one,
// rolling the year back across the January boundary.
func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// MonthlySeries buckets the list into the trailing months ending at now's
// month, oldest first. Income and expense magnitude are kept separate so the
// chart can stack them.
func MonthlySeries(list []Transaction, now time.Time, months int) []MonthlyPoint {
	if months <= 0 {
		return nil
	}

	series := make([]MonthlyPoint, months)
	index := make(map[[2]int]*MonthlyPoint, months)
	year, month, _ := now.Date()
	for i := months - 1; i >= 0; i-- {
		series[i] = MonthlyPoint{Year: year, Month: month}
		index[[2]int{year, int(month)}] = &series[i]
		year, month = previousMonth(year, month)
	}

	for _, t := range list {
		y, mo, _ := t.EffectiveDate().In(now.Location()).Date()
		p, ok := index[[2]int{y, int(mo)}]
		if !ok {
			continue
		}
		switch t.Kind {
		case Income:
			p.Income.Cents += t.Amount.Cents
		case Expense:
			p.Expenses.Cents += t.Amount.Abs().Cents
		}
	}

	return series
}

// CategoryBreakdown sums expense magnitude per category label, preserving
// first-seen order. Uncategorized expenses fall into the empty label; the
// caller decides how to display it.
func CategoryBreakdown(list []Transaction) []CategoryTotal {
	var out []CategoryTotal
	index := make(map[string]int)
	for _, t := range list {
		if t.Kind != Expense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category})
		}
		out[i].Total.Cents += t.Amount.Abs().Cents
	}
	return out
}
