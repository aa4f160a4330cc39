package enums

type ShippingMethod string

const (
	ShippingMethodStandard  ShippingMethod = "standard"
	ShippingMethodExpress   ShippingMethod = "express"
	ShippingMethodOvernight ShippingMethod = "overnight"
	ShippingMethodPickup    ShippingMethod = "pickup"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodOvernight,
	ShippingMethodPickup,
}

func (m ShippingMethod) IsValid() bool {
	return contains(validShippingMethods, m)
}

func ParseShippingMethod(value string) (ShippingMethod, error) {
	return parse(validShippingMethods, value, "shipping method")
}
