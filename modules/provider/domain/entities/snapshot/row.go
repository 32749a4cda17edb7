package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text decodes a JSON string, number, boolean or null into a trimmed string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = Text(fmt.Sprint(b))
		return nil
	}
	return fmt.Errorf("snapshot: unsupported value %s", string(data))
}

func (t Text) String() string { return string(t) }

// Row is one office-level line of the registry snapshot. Each row repeats the
// attributes of the owning firm.
type Row struct {
	OfficeAccountNo       Text `json:"officeAccountNo"`
	FirmNumber            Text `json:"firmNumber"`
	FirmName              Text `json:"firmName"`
	FirmType              Text `json:"firmType"`
	ParentFirmNumber      Text `json:"parentFirmNumber"`
	OfficeAddressLine1    Text `json:"officeAddressLine1"`
	OfficeAddressLine2    Text `json:"officeAddressLine2"`
	OfficeAddressLine3    Text `json:"officeAddressLine3"`
	OfficeAddressCity     Text `json:"officeAddressCity"`
	OfficeAddressPostcode Text `json:"officeAddressPostcode"`
}

// FirmRecord is the registry view of a firm for a single run.
type FirmRecord struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ParentCode string `json:"parentCode,omitempty"`
}

// OfficeRecord is the registry view of an office for a single run.
type OfficeRecord struct {
	Code         string `json:"code"`
	FirmCode     string `json:"firmCode"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	AddressLine3 string `json:"addressLine3,omitempty"`
	City         string `json:"city"`
	Postcode     string `json:"postcode"`
}

func (r Row) firm() FirmRecord {
	return FirmRecord{
		Code:       r.FirmNumber.String(),
		Name:       r.FirmName.String(),
		Type:       r.FirmType.String(),
		ParentCode: normalizeParent(r.ParentFirmNumber.String()),
	}
}

func (r Row) office() OfficeRecord {
	return OfficeRecord{
		Code:         r.OfficeAccountNo.String(),
		FirmCode:     r.FirmNumber.String(),
		AddressLine1: r.OfficeAddressLine1.String(),
		AddressLine2: r.OfficeAddressLine2.String(),
		AddressLine3: r.OfficeAddressLine3.String(),
		City:         r.OfficeAddressCity.String(),
		Postcode:     r.OfficeAddressPostcode.String(),
	}
}

// normalizeParent treats blank and the literal "null" as no parent.
func normalizeParent(code string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, "null") {
		return ""
	}
	return code
}
