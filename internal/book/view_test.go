package book

import (
	"testing"

	"main/internal/schema"
)

func testDepth() schema.Depth {
	return schema.Depth{
		BuyOrders: map[schema.Price]schema.Quantity{
			9996: 2,
			9998: 5,
			9995: 10,
		},
		SellOrders: map[schema.Price]schema.Quantity{
			10002: -4,
			10004: -6,
			10005: -20,
		},
	}
}

func TestViewBestAndWorst(t *testing.T) {
	v := NewView(testDepth())

	bid, ok := v.BestBid()
	if !ok || bid != 9998 {
		t.Fatalf("best bid mismatch: got %d ok=%v want 9998", bid, ok)
	}
	ask, ok := v.BestAsk()
	if !ok || ask != 10002 {
		t.Fatalf("best ask mismatch: got %d ok=%v want 10002", ask, ok)
	}
	worstBid, ok := v.WorstBid()
	if !ok || worstBid != 9995 {
		t.Fatalf("worst bid mismatch: got %d ok=%v want 9995", worstBid, ok)
	}
	worstAsk, ok := v.WorstAsk()
	if !ok || worstAsk != 10005 {
		t.Fatalf("worst ask mismatch: got %d ok=%v want 10005", worstAsk, ok)
	}
}

func TestViewMid(t *testing.T) {
	v := NewView(testDepth())
	mid, ok := v.Mid()
	if !ok || mid != 10000 {
		t.Fatalf("mid mismatch: got %v ok=%v want 10000", mid, ok)
	}
}

func TestViewEmptySide(t *testing.T) {
	v := NewView(schema.Depth{
		BuyOrders: map[schema.Price]schema.Quantity{9998: 5},
	})
	if _, ok := v.BestAsk(); ok {
		t.Fatalf("expected no best ask on empty sell side")
	}
	if _, ok := v.Mid(); ok {
		t.Fatalf("expected no mid with one empty side")
	}
	if bid, ok := v.BestBid(); !ok || bid != 9998 {
		t.Fatalf("best bid mismatch: got %d ok=%v want 9998", bid, ok)
	}
}

func TestViewDepthVolume(t *testing.T) {
	v := NewView(testDepth())

	// Stops as soon as the running total reaches the target.
	if got := v.BidVolume(6); got != 7 {
		t.Fatalf("bid volume mismatch: got %d want 7", got)
	}
	// Exhausts the book when the target exceeds total liquidity.
	if got := v.BidVolume(100); got != 17 {
		t.Fatalf("bid volume mismatch: got %d want 17", got)
	}
	if got := v.AskVolume(5); got != 10 {
		t.Fatalf("ask volume mismatch: got %d want 10", got)
	}
	if got := v.AskVolume(100); got != 30 {
		t.Fatalf("ask volume mismatch: got %d want 30", got)
	}
}

func TestViewLevelQuantities(t *testing.T) {
	v := NewView(testDepth())
	if got := v.BidQty(9998); got != 5 {
		t.Fatalf("bid qty mismatch: got %d want 5", got)
	}
	if got := v.AskQty(10002); got != 4 {
		t.Fatalf("ask qty mismatch: got %d want 4", got)
	}
	if got := v.AskQty(12345); got != 0 {
		t.Fatalf("missing level should be zero, got %d", got)
	}
}
