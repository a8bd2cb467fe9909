package enrich

import (
	"fmt"

	"github.com/klauspost/oui"
)

// VendorDB resolves MAC addresses to manufacturer names from an IEEE OUI
// database file.
type VendorDB struct {
	db oui.OuiDB
}

// OpenVendorDB loads the OUI database at path (the IEEE oui.txt format).
func OpenVendorDB(path string) (*VendorDB, error) {
	db, err := oui.OpenStaticFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening OUI database %s: %w", path, err)
	}
	return &VendorDB{db: db}, nil
}

// Lookup returns the manufacturer for mac, or "" if it is unknown.
func (v *VendorDB) Lookup(mac string) string {
	if v == nil || v.db == nil || mac == "" {
		return ""
	}
	entry, err := v.db.Query(mac)
	if err != nil || entry == nil {
		return ""
	}
	return entry.Manufacturer
}
