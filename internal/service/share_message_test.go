package service

import (
	"strings"
	"testing"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func TestBuildShareMessage(t *testing.T) {
	sub := &domain.Subscription{
		Name:            "YouTube Family",
		Value:           decimal.RequireFromString("53.90"),
		Cycle:           domain.CycleMonthly,
		SharedWithCount: i32(3),
	}

	msg, err := BuildShareMessage(sub, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "Reminder - Cofre Forte:\n" +
		"Subscription: YouTube Family\n" +
		"Total: 53.90\n" +
		"Our share (3 people): 17.97 each.\n\n" +
		"My payment key: " + DefaultSharePaymentKey
	if msg != want {
		t.Errorf("unexpected message:\n%s\nwant:\n%s", msg, want)
	}
}

func TestBuildShareMessage_NotShared(t *testing.T) {
	for _, count := range []*int32{nil, i32(0), i32(1), i32(-2)} {
		sub := &domain.Subscription{Name: "Solo", Value: decimal.NewFromInt(10), SharedWithCount: count}
		if _, err := BuildShareMessage(sub, "key"); err != domain.ErrNotShared {
			t.Errorf("shared=%v: expected ErrNotShared, got %v", count, err)
		}
	}
	if _, err := BuildShareMessage(nil, "key"); err != domain.ErrNotShared {
		t.Errorf("expected ErrNotShared for nil, got %v", err)
	}
	if msg, _ := BuildShareMessage(&domain.Subscription{Name: "Duo", Value: decimal.NewFromInt(10), SharedWithCount: i32(2)}, "pix-123"); !strings.HasSuffix(msg, "pix-123") {
		t.Errorf("expected configured key, got %q", msg)
	}
}
