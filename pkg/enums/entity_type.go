package enums

import "fmt"

// EntityType names a collection in the local store. Every record belongs to
// exactly one collection.
type EntityType string

const (
	EntityTransaction EntityType = "transaction"
	EntityProduct     EntityType = "product"
	EntityCustomer    EntityType = "customer"
	EntityUser        EntityType = "user"
	EntitySetting     EntityType = "setting"
)

var validEntityTypes = []EntityType{
	EntityTransaction,
	EntityProduct,
	EntityCustomer,
	EntityUser,
	EntitySetting,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into an EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
