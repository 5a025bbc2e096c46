package lifecycle

import (
	"testing"

	"github.com/spec-kit/grievance-service/internal/domain"
)

func TestTicketTransitions(t *testing.T) {
	t.Parallel()
	machine := Tickets()

	cases := []struct {
		name    string
		from    domain.TicketStatus
		to      domain.TicketStatus
		allowed bool
	}{
		{name: "open to assigned", from: domain.TicketStatusOpen, to: domain.TicketStatusAssigned, allowed: true},
		{name: "open to closed", from: domain.TicketStatusOpen, to: domain.TicketStatusClosed, allowed: true},
		{name: "open to resolved skips work", from: domain.TicketStatusOpen, to: domain.TicketStatusResolved, allowed: false},
		{name: "assigned to in_progress", from: domain.TicketStatusAssigned, to: domain.TicketStatusInProgress, allowed: true},
		{name: "in_progress to resolved", from: domain.TicketStatusInProgress, to: domain.TicketStatusResolved, allowed: true},
		{name: "resolved reopens", from: domain.TicketStatusResolved, to: domain.TicketStatusInProgress, allowed: true},
		{name: "resolved to closed", from: domain.TicketStatusResolved, to: domain.TicketStatusClosed, allowed: true},
		{name: "closed is terminal", from: domain.TicketStatusClosed, to: domain.TicketStatusOpen, allowed: false},
		{name: "self transition", from: domain.TicketStatusOpen, to: domain.TicketStatusOpen, allowed: false},
		{name: "unknown target", from: domain.TicketStatusOpen, to: domain.TicketStatus("bogus"), allowed: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := machine.CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestIssueTransitions(t *testing.T) {
	t.Parallel()
	machine := Issues()

	cases := []struct {
		name    string
		from    domain.IssueStatus
		to      domain.IssueStatus
		allowed bool
	}{
		{name: "open to in_progress", from: domain.IssueStatusOpen, to: domain.IssueStatusInProgress, allowed: true},
		{name: "open to cancelled", from: domain.IssueStatusOpen, to: domain.IssueStatusCancelled, allowed: true},
		{name: "open to resolved skips work", from: domain.IssueStatusOpen, to: domain.IssueStatusResolved, allowed: false},
		{name: "in_progress to resolved", from: domain.IssueStatusInProgress, to: domain.IssueStatusResolved, allowed: true},
		{name: "resolved reopens", from: domain.IssueStatusResolved, to: domain.IssueStatusInProgress, allowed: true},
		{name: "cancelled is terminal", from: domain.IssueStatusCancelled, to: domain.IssueStatusOpen, allowed: false},
		{name: "closed is terminal", from: domain.IssueStatusClosed, to: domain.IssueStatusInProgress, allowed: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := machine.CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()
	machine := Tickets()
	if !machine.Known(domain.TicketStatusOpen) {
		t.Fatal("open should be a known state")
	}
	if machine.Known(domain.TicketStatus("bogus")) {
		t.Fatal("bogus should not be a known state")
	}
}
