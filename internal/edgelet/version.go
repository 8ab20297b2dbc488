package edgelet

import (
	"fmt"
	"slices"
)

// Version is a management API version tag.
type Version string

const (
	Version20180628 Version = "2018-06-28"
	Version20181230 Version = "2018-12-30"
	Version20190130 Version = "2019-01-30"
)

// SupportedVersions lists the API versions this client can speak, oldest first.
var SupportedVersions = []Version{Version20180628, Version20181230, Version20190130}

// ParseVersion validates a version tag.
func ParseVersion(s string) (Version, error) {
	v := Version(s)
	if !slices.Contains(SupportedVersions, v) {
		return "", fmt.Errorf("unsupported management API version %q", s)
	}
	return v, nil
}

func (v Version) String() string {
	return string(v)
}
