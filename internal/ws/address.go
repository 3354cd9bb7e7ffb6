package ws

// AddressKind discriminates the three room namespaces. Keeping the kind
// out of the value makes a collision between, say, a role and an order
// id structurally impossible.
type AddressKind uint8

const (
	KindUser AddressKind = iota + 1
	KindRole
	KindOrder
)

// Address names one broadcast room. Comparable, so it can key the hub's
// room map directly.
type Address struct {
	Kind  AddressKind
	Value string
}

func UserRoom(userID string) Address { return Address{Kind: KindUser, Value: userID} }
func RoleRoom(role string) Address   { return Address{Kind: KindRole, Value: role} }
func OrderRoom(orderID string) Address {
	return Address{Kind: KindOrder, Value: orderID}
}

// String is for log lines only, never for addressing.
func (a Address) String() string {
	switch a.Kind {
	case KindUser:
		return "user:" + a.Value
	case KindRole:
		return "role:" + a.Value
	case KindOrder:
		return "order:" + a.Value
	}
	return "invalid:" + a.Value
}
