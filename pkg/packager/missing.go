package packager

import (
	"encoding/json"
	"fmt"

	"github.com/aipagereader/xpipack/pkg/util"
)

// MissingPolicy decides what happens when an inclusion-list entry does not
// exist on disk.
type MissingPolicy string

const (
	// WarnOnMissing logs a warning per missing entry and packages the rest.
	WarnOnMissing MissingPolicy = "warn"
	// FailOnMissing aborts the build before the output path is touched.
	FailOnMissing MissingPolicy = "fail"
)

var missingPolicyToString = map[MissingPolicy]string{
	WarnOnMissing: "warn",
	FailOnMissing: "fail",
}

var stringToMissingPolicy map[string]MissingPolicy

func init() {
	stringToMissingPolicy = util.InvertMap(missingPolicyToString)
}

func (m MissingPolicy) String() string {
	if str, ok := missingPolicyToString[m]; ok {
		return str
	}
	return fmt.Sprintf("unknown_missing_policy(%s)", string(m))
}

// ParseMissingPolicy parses a string into a MissingPolicy.
// It defaults to WarnOnMissing if the string is empty.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	if s == "" {
		return WarnOnMissing, nil
	}
	if m, ok := stringToMissingPolicy[s]; ok {
		return m, nil
	}
	return "", fmt.Errorf("invalid missing-entry policy: %q. Must be 'warn' or 'fail'", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (m MissingPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (m *MissingPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("missing-entry policy should be a string, got %s", data)
	}
	policy, err := ParseMissingPolicy(s)
	if err != nil {
		return err
	}
	*m = policy
	return nil
}
