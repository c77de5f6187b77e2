package domain

import (
	"math"
	"testing"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{ProductID: "1", Price: 10.00, Quantity: 2},
		{ProductID: "2", Price: 2.50, Quantity: 1},
	}

	totals := ComputeTotals(items, 0.10)
	if totals.Subtotal != 22.50 {
		t.Fatalf("unexpected subtotal %v", totals.Subtotal)
	}
	if math.Abs(totals.Tax-2.25) > 1e-9 {
		t.Fatalf("unexpected tax %v", totals.Tax)
	}
	if math.Abs(totals.Total-24.75) > 1e-9 {
		t.Fatalf("unexpected total %v", totals.Total)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, 0.10)
	if totals.Subtotal != 0 || totals.Tax != 0 || totals.Total != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestComputeTotalsSkipsInvalidLines(t *testing.T) {
	items := []LineItem{
		{ProductID: "1", Price: 10.00, Quantity: 0},
		{ProductID: "2", Price: -5.00, Quantity: 3},
		{ProductID: "3", Price: 4.00, Quantity: 1},
	}

	totals := ComputeTotals(items, 0.10)
	if totals.Subtotal != 4.00 {
		t.Fatalf("expected only the valid line in the subtotal, got %v", totals.Subtotal)
	}
}

func TestComputeTotalsNegativeRateClamped(t *testing.T) {
	totals := ComputeTotals([]LineItem{{ProductID: "1", Price: 10, Quantity: 1}}, -0.5)
	if totals.Tax != 0 {
		t.Fatalf("expected zero tax for negative rate, got %v", totals.Tax)
	}
	if totals.Total != 10 {
		t.Fatalf("expected total to equal subtotal, got %v", totals.Total)
	}
}

func TestRoundDisplay(t *testing.T) {
	cases := map[float64]float64{
		2.256:   2.26,
		2.254:   2.25,
		0:       0,
		1299.5:  1299.5,
		10.0001: 10,
	}
	for in, want := range cases {
		if got := RoundDisplay(in); got != want {
			t.Errorf("RoundDisplay(%v) = %v, want %v", in, got, want)
		}
	}
}
