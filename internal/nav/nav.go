// Package nav carries the list-to-detail handoff as an explicit value
// instead of a shared session slot, so a detail view can never pick up a
// stale id left behind by a previous navigation.
package nav

// Entity names the detail view a payload targets.
type Entity string

const (
	EntitySupplier    Entity = "supplier"
	EntityCustomer    Entity = "customer"
	EntityProduct     Entity = "product"
	EntityAccount     Entity = "account"
	EntityTransaction Entity = "transaction"
)

// Payload is passed directly to the next view on navigation.
type Payload struct {
	Entity Entity
	ID     int64
}
