package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/orders"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func money(v float64) string {
	return fmt.Sprintf("€%.2f", v)
}

func printLines(w io.Writer, lines []core.CartLine) error {
	t := newTable(w)
	fmt.Fprintln(t, "ITEM\tNAME\tQTY\tUNIT\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(t, "%s\t%s\t%d\t%s\t%s\n", l.CartItemID, l.Name, l.Quantity, money(l.UnitPrice), money(l.TotalPrice))
	}
	return t.Flush()
}

func printBill(w io.Writer, bill core.Bill) {
	fmt.Fprintf(w, "Subtotal: %s\n", money(bill.Subtotal))
	if bill.PriorityFee > 0 {
		fmt.Fprintf(w, "Priority: %s\n", money(bill.PriorityFee))
	}
	fmt.Fprintf(w, "Total:    %s\n", money(bill.Total))
}

func printProgress(w io.Writer, p orders.Progress) {
	for _, s := range p.Stages {
		mark := "[ ]"
		switch {
		case s.Current:
			mark = "[>]"
		case s.Complete:
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, s.Label)
		if s.Complete && !s.At.IsZero() {
			line += " " + s.At.Local().Format(time.Kitchen)
		}
		fmt.Fprintln(w, line)
	}
	if !p.Delivered() {
		fmt.Fprintf(w, "Estimated delivery: %s\n", p.EstimatedDelivery.Local().Format(time.Kitchen))
	}
}
