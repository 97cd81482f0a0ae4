package domain

// LifecycleAction is a state-changing operation on a purchase order
type LifecycleAction string

const (
	LifecycleActionSubmit  LifecycleAction = "submit"
	LifecycleActionReceive LifecycleAction = "receive"
	LifecycleActionClose   LifecycleAction = "close"
	LifecycleActionCancel  LifecycleAction = "cancel"
)

// allowedFrom lists the statuses each action may start from. Actions
// carry further preconditions (line validity, receipt counts, force
// flags) enforced by the lifecycle service; this table is only the
// structural part of the state machine.
var allowedFrom = map[LifecycleAction][]PurchaseOrderStatus{
	LifecycleActionSubmit:  {PurchaseOrderStatusDraft},
	LifecycleActionReceive: {PurchaseOrderStatusOrdered, PurchaseOrderStatusPartial},
	LifecycleActionClose:   {PurchaseOrderStatusOrdered, PurchaseOrderStatusPartial, PurchaseOrderStatusReceived},
	LifecycleActionCancel:  {PurchaseOrderStatusDraft, PurchaseOrderStatusOrdered, PurchaseOrderStatusPartial},
}

// CanPerform reports whether the action is structurally allowed from
// the given status.
func (a LifecycleAction) CanPerform(from PurchaseOrderStatus) bool {
	for _, s := range allowedFrom[a] {
		if s == from {
			return true
		}
	}
	return false
}
