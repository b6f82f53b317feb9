package models

import (
	"strings"
	"time"

	"triveni-inventory-api/pkg/assettag"
)

// Asset set status values
const (
	StatusFree     = "Free"
	StatusAssigned = "Assigned"
	StatusFaulty   = "Faulty"
)

// Statuses lists the valid asset-set statuses in display order.
var Statuses = []string{StatusFree, StatusAssigned, StatusFaulty}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// DisplayUnit describes one monitor slot of an asset set. A slot counts as
// present only when the brand is non-empty.
type DisplayUnit struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Size  string `json:"size"`
}

// Present reports whether a monitor occupies this slot.
func (d DisplayUnit) Present() bool {
	return strings.TrimSpace(d.Brand) != ""
}

// Peripherals holds the free-text brand/model strings of the accessories
// bundled with a workstation.
type Peripherals struct {
	Mouse     string `json:"mouse"`
	Keyboard  string `json:"keyboard"`
	Headphone string `json:"headphone"`
	Camera    string `json:"camera"`
}

// AssetSet is one tracked workstation bundle. The id doubles as the store
// key and is minted from the creation clock, so it is unique and
// monotonically increasing; it never changes after creation.
type AssetSet struct {
	ID          int64        `json:"id"`
	SetName     string       `json:"setName"`
	Assignee    string       `json:"assignee"`
	Status      string       `json:"status"`
	Tags        assettag.Set `json:"tags"`
	Display1    DisplayUnit  `json:"display1"`
	Display2    DisplayUnit  `json:"display2"`
	Peripherals Peripherals  `json:"peripherals"`
	CreatedAt   string       `json:"createdAt"`
}

// CreatedAtFormat is the display format for asset-set creation dates.
const CreatedAtFormat = "02 Jan 2006"

// NewAssetSetID mints a creation-timestamp surrogate key.
func NewAssetSetID(now time.Time) int64 {
	return now.UnixMilli()
}

// Normalize fills defaults on records written by earlier schema revisions:
// missing status and tags. Older records lacking display2 or peripherals
// simply decode to zero values, which are already valid.
func (a *AssetSet) Normalize() {
	if a.Status == "" {
		a.Status = StatusFree
	}
	if a.Tags == (assettag.Set{}) {
		a.Tags = assettag.Generate(a.SetName)
	}
}

// AssetSetRequest is the form payload for creating or updating an asset
// set. Updates reuse the URL id; creates mint a new one. When Tags is nil
// the server derives them from the set name, otherwise the user-edited
// tags are stored verbatim.
type AssetSetRequest struct {
	SetName     string        `json:"setName"`
	Assignee    string        `json:"assignee"`
	Status      string        `json:"status"`
	Tags        *assettag.Set `json:"tags,omitempty"`
	Display1    DisplayUnit   `json:"display1"`
	Display2    DisplayUnit   `json:"display2"`
	Peripherals Peripherals   `json:"peripherals"`
}

// Validate checks the presence rules for a submitted form.
func (r AssetSetRequest) Validate() string {
	if strings.TrimSpace(r.SetName) == "" {
		return "setName is required"
	}
	if r.Status != "" && !ValidStatus(r.Status) {
		return "status must be one of Free, Assigned, Faulty"
	}
	return ""
}

// Build assembles a full record from the request. The caller supplies the
// id and creation date so updates can carry them over unchanged.
func (r AssetSetRequest) Build(id int64, createdAt string) AssetSet {
	tags := assettag.Generate(r.SetName)
	if r.Tags != nil {
		tags = *r.Tags
	}
	status := r.Status
	if status == "" {
		status = StatusFree
	}
	return AssetSet{
		ID:          id,
		SetName:     r.SetName,
		Assignee:    r.Assignee,
		Status:      status,
		Tags:        tags,
		Display1:    r.Display1,
		Display2:    r.Display2,
		Peripherals: r.Peripherals,
		CreatedAt:   createdAt,
	}
}
