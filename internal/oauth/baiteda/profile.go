package baiteda

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedProfile indicates the user detail payload could not be parsed
// or is missing the external user id. Nothing is mutated when it fires.
var ErrMalformedProfile = errors.New("baiteda: malformed profile payload")

// Profile is the normalized external profile. It is built once per login
// attempt and discarded after reconciliation.
type Profile struct {
	// ExternalID is the provider-assigned opaque user id.
	ExternalID string

	// DisplayName is always a locally generated nickname. The provider does
	// not reliably supply a usable name, so a random one guarantees every
	// profile carries a non-empty display name.
	DisplayName string

	// Mobile is copied verbatim when the provider supplies it.
	Mobile string

	// TenantLabel is the flattened tenant membership list.
	TenantLabel string

	// Email is synthesized as "@"+TenantLabel when the user belongs to at
	// least one tenant. It is an identity key, not a deliverable address.
	Email string
}

// userDetail mirrors the provider's user detail response. Only the fields
// the normalizer needs are declared.
type userDetail struct {
	Data struct {
		UserBaseInfo struct {
			UserID string `json:"user_id"`
		} `json:"user_base_info"`
		Mobile     string `json:"mobile"`
		TenantList []struct {
			TenantName string `json:"tenant_name"`
		} `json:"tenant_list"`
	} `json:"data"`
}

// ParseProfile normalizes a raw user detail payload. Pure function: no
// network or storage access.
func ParseProfile(raw []byte) (*Profile, error) {
	var detail userDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, ErrMalformedProfile
	}

	externalID := strings.TrimSpace(detail.Data.UserBaseInfo.UserID)
	if externalID == "" {
		return nil, ErrMalformedProfile
	}

	p := &Profile{
		ExternalID:  externalID,
		DisplayName: randomNickname(),
		Mobile:      detail.Data.Mobile,
	}

	names := make([]string, 0, len(detail.Data.TenantList))
	for _, t := range detail.Data.TenantList {
		if t.TenantName != "" {
			names = append(names, t.TenantName)
		}
	}
	// Separator kept from the upstream payload convention (fullwidth comma).
	p.TenantLabel = strings.Join(names, "，")

	if p.TenantLabel != "" {
		p.Email = "@" + p.TenantLabel
	}

	return p, nil
}
