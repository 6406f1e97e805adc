package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderWith(status OrderStatus, contractorID uint, workerID *uint) *ServiceOrder {
	return &ServiceOrder{
		ContractorID: contractorID,
		WorkerID:     workerID,
		Status:       status,
	}
}

func uintPtr(v uint) *uint { return &v }

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, StatusAccepted.IsActive())
	assert.True(t, StatusInProgress.IsActive())
	assert.False(t, StatusPublicOffer.IsActive())
	assert.False(t, StatusPending.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusCancelled.IsActive())

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusAccepted.IsTerminal())

	assert.True(t, StatusPublicOffer.IsOpen())
	assert.True(t, StatusPending.IsOpen())
	assert.False(t, StatusInProgress.IsOpen())
}

func TestRoleFor(t *testing.T) {
	order := orderWith(StatusAccepted, 1, uintPtr(2))

	assert.Equal(t, RoleContractor, order.RoleFor(1))
	assert.Equal(t, RoleWorker, order.RoleFor(2))
	assert.Equal(t, RoleVisitor, order.RoleFor(3))

	// Public offers have no worker yet
	offer := orderWith(StatusPublicOffer, 1, nil)
	assert.Equal(t, RoleContractor, offer.RoleFor(1))
	assert.Equal(t, RoleVisitor, offer.RoleFor(2))
}

func TestIsParty(t *testing.T) {
	order := orderWith(StatusInProgress, 1, uintPtr(2))

	assert.True(t, order.IsParty(1))
	assert.True(t, order.IsParty(2))
	assert.False(t, order.IsParty(99))
}

func TestAllowedActionsTable(t *testing.T) {
	tests := []struct {
		name    string
		status  OrderStatus
		role    Role
		allowed []OrderAction
	}{
		{"public offer, contractor", StatusPublicOffer, RoleContractor, []OrderAction{ActionEdit, ActionCancel}},
		{"public offer, visitor may claim", StatusPublicOffer, RoleVisitor, []OrderAction{ActionAccept}},
		{"pending, contractor", StatusPending, RoleContractor, []OrderAction{ActionEdit, ActionCancel}},
		{"pending, targeted worker", StatusPending, RoleWorker, []OrderAction{ActionAccept, ActionDeny}},
		{"pending, visitor", StatusPending, RoleVisitor, nil},
		{"accepted, contractor", StatusAccepted, RoleContractor, []OrderAction{ActionCancel, ActionComplete}},
		{"accepted, worker may start", StatusAccepted, RoleWorker, []OrderAction{ActionStart, ActionCancel, ActionComplete}},
		{"in progress, worker", StatusInProgress, RoleWorker, []OrderAction{ActionCancel, ActionComplete}},
		{"completed, contractor may rate", StatusCompleted, RoleContractor, []OrderAction{ActionRate}},
		{"completed, worker", StatusCompleted, RoleWorker, nil},
		{"cancelled, contractor", StatusCancelled, RoleContractor, nil},
		{"cancelled, worker", StatusCancelled, RoleWorker, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := orderWith(tt.status, 1, uintPtr(2))
			assert.ElementsMatch(t, tt.allowed, order.AllowedActions(tt.role))
		})
	}
}

func TestAllowedActionsAfterRating(t *testing.T) {
	order := orderWith(StatusCompleted, 1, uintPtr(2))
	assert.True(t, order.Allows(RoleContractor, ActionRate))

	order.RatedByContractor = true
	assert.Empty(t, order.AllowedActions(RoleContractor))
	assert.False(t, order.Allows(RoleContractor, ActionRate))
}

func TestAllowsRejectsForeignActions(t *testing.T) {
	order := orderWith(StatusAccepted, 1, uintPtr(2))

	// Start is the worker's move, not the contractor's
	assert.False(t, order.Allows(RoleContractor, ActionStart))
	assert.True(t, order.Allows(RoleWorker, ActionStart))

	// Nobody edits an active order
	assert.False(t, order.Allows(RoleContractor, ActionEdit))
	assert.False(t, order.Allows(RoleWorker, ActionEdit))

	// Visitors never touch an assigned order
	assert.Empty(t, order.AllowedActions(RoleVisitor))
}

// Walks an order through the direct proposal flow: pendente -> aceita ->
// em_andamento -> concluida -> rated.
func TestProposalLifecycle(t *testing.T) {
	order := orderWith(StatusPending, 1, uintPtr(2))

	assert.True(t, order.Allows(order.RoleFor(2), ActionAccept))
	order.Status = StatusAccepted

	assert.True(t, order.Allows(order.RoleFor(2), ActionStart))
	order.Status = StatusInProgress
	assert.True(t, order.Status.IsActive())

	assert.True(t, order.Allows(order.RoleFor(2), ActionComplete))
	order.Status = StatusCompleted

	assert.True(t, order.Allows(order.RoleFor(1), ActionRate))
	order.RatedByContractor = true
	assert.Empty(t, order.AllowedActions(RoleContractor))
}

// A denied proposal goes back to the public pool with the worker cleared,
// where a different professional may claim it.
func TestDenyReturnsOfferToPool(t *testing.T) {
	order := orderWith(StatusPending, 1, uintPtr(2))
	assert.True(t, order.Allows(order.RoleFor(2), ActionDeny))

	order.WorkerID = nil
	order.Status = StatusPublicOffer

	assert.Equal(t, RoleVisitor, order.RoleFor(2))
	assert.True(t, order.Allows(order.RoleFor(3), ActionAccept))
}
