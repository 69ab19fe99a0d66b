package models

import "fmt"

// DeviceInfo is the platform metadata known about one attached device.
type DeviceInfo struct {
	Key          DeviceKey `json:"key"`
	Speed        Speed     `json:"speed"`
	VendorID     string    `json:"vendorId,omitempty"`
	ProductID    string    `json:"productId,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Product      string    `json:"product,omitempty"`
}

// DisplayName prefers the product string, then the vendor:product id pair.
func (d DeviceInfo) DisplayName() string {
	switch {
	case d.Manufacturer != "" && d.Product != "":
		return fmt.Sprintf("%s %s", d.Manufacturer, d.Product)
	case d.Product != "":
		return d.Product
	case d.VendorID != "" || d.ProductID != "":
		return fmt.Sprintf("%s:%s", d.VendorID, d.ProductID)
	}
	return ""
}
