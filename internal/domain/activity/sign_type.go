package activity

import (
	"strconv"
	"strings"
)

// SignType is the sign-in kind encoded in the platform's otherId.
type SignType int

const (
	SignTypeNormal   SignType = 0
	SignTypeQRCode   SignType = 2
	SignTypeGesture  SignType = 3
	SignTypeLocation SignType = 4
	SignTypeCode     SignType = 5

	// SignTypeUnknown is used for any code outside the table.
	SignTypeUnknown SignType = -1
)

const (
	photoSuffix    = "[需照片]"
	locationSuffix = "[需位置]"
	unknownLabel   = "未知签到类型"
)

var signTypeLabels = map[SignType]string{
	SignTypeNormal:   "普通签到",
	SignTypeQRCode:   "二维码签到",
	SignTypeGesture:  "手势签到",
	SignTypeLocation: "位置签到",
	SignTypeCode:     "签到码签到",
}

// ParseSignType decodes otherId. Codes outside the table map to SignTypeUnknown.
func ParseSignType(otherID string) SignType {
	n, err := strconv.Atoi(strings.TrimSpace(otherID))
	if err != nil {
		return SignTypeUnknown
	}
	st := SignType(n)
	if _, ok := signTypeLabels[st]; !ok {
		return SignTypeUnknown
	}
	return st
}

// String returns the base label.
func (s SignType) String() string {
	if label, ok := signTypeLabels[s]; ok {
		return label
	}
	return unknownLabel
}

// Label returns the base label followed by the requirement suffixes.
func (s SignType) Label(requirePhoto, requireLocation bool) string {
	label := s.String()
	if requirePhoto {
		label += photoSuffix
	}
	if requireLocation {
		label += locationSuffix
	}
	return label
}
