// Package order owns durable order records and their lifecycle.
//
// Invariants:
// - Orders are append-only: finished orders sit in a terminal status, never deleted.
// - Status changes follow the transition map and are applied atomically.
// - Payment detail updates merge additively; keys are never dropped.
//
// Usage:
//
//	mgr, _ := order.NewManager(order.Config{DB: db})
//	o, _ := mgr.Create(ctx, order.CreateInput{CustomerName: "Alice", InterfaceType: order.InterfacePhone})
//	_ = mgr.UpdateStatus(ctx, o.ID, order.StatusPaymentProcessing)
package order
