package address

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Group address limits.
const (
	GroupVersion    = 2
	MaxGroupMembers = 255
)

// GroupAddress is a threshold group of either identifier members or
// single-key members. Members are kept sorted.
type GroupAddress struct {
	Version   byte
	Threshold uint8
	Members   []string
}

func (*GroupAddress) isAddress() {}

// NewGroupAddress validates and canonicalizes a member list. Members
// starting with the XIN prefix are single-key addresses; all others must be
// identifiers. The two kinds cannot be mixed.
func NewGroupAddress(members []string, threshold uint8) (*GroupAddress, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group has no members", types.ErrValidation)
	}
	if len(members) > MaxGroupMembers {
		return nil, fmt.Errorf("%w: group has %d members, max %d",
			types.ErrValidation, len(members), MaxGroupMembers)
	}
	if threshold == 0 || int(threshold) > len(members) {
		return nil, fmt.Errorf("%w: threshold %d out of range for %d members",
			types.ErrValidation, threshold, len(members))
	}

	var ids, keys []string
	for _, m := range members {
		if strings.HasPrefix(m, SingleKeyPrefix) {
			if _, err := DecodePublicKey(m); err != nil {
				return nil, fmt.Errorf("member %q: %w", m, err)
			}
			keys = append(keys, m)
			continue
		}
		id, err := types.CanonicalIdentifier(m)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	if len(ids) > 0 && len(keys) > 0 {
		return nil, fmt.Errorf("%w: group mixes identifier and key members", types.ErrValidation)
	}
	slices.Sort(ids)
	slices.Sort(keys)

	return &GroupAddress{
		Version:   GroupVersion,
		Threshold: threshold,
		Members:   append(ids, keys...),
	}, nil
}

// HasKeyMembers reports whether the group is made of single-key addresses.
func (a *GroupAddress) HasKeyMembers() bool {
	return len(a.Members) > 0 && strings.HasPrefix(a.Members[0], SingleKeyPrefix)
}

// KeyMembers parses the single-key members. It returns nil for identifier groups.
func (a *GroupAddress) KeyMembers() ([]*SingleKeyAddress, error) {
	if !a.HasKeyMembers() {
		return nil, nil
	}
	out := make([]*SingleKeyAddress, len(a.Members))
	for i, m := range a.Members {
		k, err := ParseSingleKeyAddress(m)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// Payload returns [version, threshold, count] followed by the packed members.
func (a *GroupAddress) Payload() ([]byte, error) {
	if len(a.Members) == 0 || len(a.Members) > MaxGroupMembers {
		return nil, fmt.Errorf("%w: group has %d members", types.ErrValidation, len(a.Members))
	}
	size := types.IdentifierSize
	if a.HasKeyMembers() {
		size = PublicKeySize
	}
	payload := make([]byte, 0, 3+len(a.Members)*size)
	payload = append(payload, a.Version, a.Threshold, byte(len(a.Members)))
	for _, m := range a.Members {
		if strings.HasPrefix(m, SingleKeyPrefix) {
			pub, err := DecodePublicKey(m)
			if err != nil {
				return nil, err
			}
			payload = append(payload, pub[:]...)
			continue
		}
		id, err := types.PackIdentifier(m)
		if err != nil {
			return nil, err
		}
		payload = append(payload, id...)
	}
	if len(payload) != 3+len(a.Members)*size {
		return nil, fmt.Errorf("%w: group mixes identifier and key members", types.ErrValidation)
	}
	return payload, nil
}

// Encode returns the MIX form of the address.
func (a *GroupAddress) Encode() (string, error) {
	payload, err := a.Payload()
	if err != nil {
		return "", err
	}
	return encodeChecked(GroupPrefix, payload), nil
}

// String returns the MIX form of the address. A group that cannot be
// serialized renders as an empty string; use Encode to get the error.
func (a *GroupAddress) String() string {
	s, _ := a.Encode()
	return s
}

// ParseGroupAddress decodes a MIX address string.
func ParseGroupAddress(s string) (*GroupAddress, error) {
	payload, err := decodeChecked(GroupPrefix, s)
	if err != nil {
		return nil, err
	}
	return DecodeGroupPayload(payload)
}

// DecodeGroupPayload is the inverse of Payload. The member kind follows from
// the remaining length: count*16 for identifiers, count*64 for keys.
func DecodeGroupPayload(payload []byte) (*GroupAddress, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("%w: group payload too short", ErrInvalidAddress)
	}
	version, threshold, count := payload[0], payload[1], int(payload[2])
	if version != GroupVersion {
		return nil, fmt.Errorf("%w: unsupported group version %d", ErrInvalidAddress, version)
	}
	if count == 0 || threshold == 0 || int(threshold) > count {
		return nil, fmt.Errorf("%w: threshold %d of %d members", ErrInvalidAddress, threshold, count)
	}

	data := payload[3:]
	members := make([]string, 0, count)
	switch len(data) {
	case count * types.IdentifierSize:
		for i := 0; i < count; i++ {
			id, err := types.UnpackIdentifier(data[i*types.IdentifierSize : (i+1)*types.IdentifierSize])
			if err != nil {
				return nil, err
			}
			members = append(members, id)
		}
	case count * PublicKeySize:
		for i := 0; i < count; i++ {
			var pub [PublicKeySize]byte
			copy(pub[:], data[i*PublicKeySize:])
			members = append(members, EncodePublicKey(pub))
		}
	default:
		return nil, fmt.Errorf("%w: %d member bytes for %d members", ErrInvalidAddress, len(data), count)
	}

	return &GroupAddress{Version: version, Threshold: threshold, Members: members}, nil
}
