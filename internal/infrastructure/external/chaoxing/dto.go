package chaoxing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOLERANT SCALARS
// The platform sends the same field as a number in one response and a
// numeric string in another.
// ══════════════════════════════════════════════════════════════════════════════

// FlexInt decodes a JSON number, numeric string, or null.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("flexint: %w", err)
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the value as int.
func (f FlexInt) Int() int {
	return int(f)
}

// FlexString decodes a JSON string or number into its text form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flexstring: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// LoginResponseDTO is the fanyalogin answer.
type LoginResponseDTO struct {
	// Status is nil when the field is missing.
	Status *bool `json:"status"`

	// Msg2 is the human-readable rejection reason.
	Msg2 *string `json:"msg2"`

	URL string `json:"url,omitempty"`
}

// ActiveListResponseDTO is the student active list.
type ActiveListResponseDTO struct {
	Result FlexInt `json:"result"`
	Msg    string  `json:"msg"`
	Data   struct {
		ActiveList []ActiveDTO `json:"activeList"`
	} `json:"data"`
}

// ActiveDTO is one entry of the active list.
type ActiveDTO struct {
	ID         FlexString `json:"id"`
	NameOne    string     `json:"nameOne"`
	OtherID    FlexString `json:"otherId"`
	StartTime  FlexInt    `json:"startTime"`
	EndTime    FlexInt    `json:"endTime"`
	Status     FlexInt    `json:"status"`
	UserStatus FlexInt    `json:"userStatus"`
	GroupID    FlexInt    `json:"groupId"`
	Source     FlexInt    `json:"source"`
	IsLook     FlexInt    `json:"isLook"`
	Type       FlexInt    `json:"type"`
	ReleaseNum FlexInt    `json:"releaseNum"`
	AttendNum  FlexInt    `json:"attendNum"`
	ActiveType FlexInt    `json:"activeType"`
}

// ActiveInfoResponseDTO is the getPPTActiveInfo answer.
type ActiveInfoResponseDTO struct {
	Result FlexInt        `json:"result"`
	Msg    string         `json:"msg"`
	Data   *ActiveInfoDTO `json:"data"`
}

// ActiveInfoDTO holds the sign-in requirements of one activity.
type ActiveInfoDTO struct {
	LocationRange FlexInt `json:"locationRange"`
	IfPhoto       FlexInt `json:"ifphoto"`
	IfOpenAddress FlexInt `json:"ifopenAddress"`
}

// SignInResponseDTO is the signIn answer.
type SignInResponseDTO struct {
	Result FlexInt `json:"result"`
	Msg    string  `json:"msg"`
}

// Accepted reports whether the platform recorded the sign-in.
func (r SignInResponseDTO) Accepted() bool {
	return r.Result == 1 && r.Msg == "success"
}
