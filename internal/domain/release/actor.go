package release

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who produced a release.
type Actor struct {
	// Hostname is the machine the packager ran on.
	Hostname string `yaml:"hostname"`
	// Username is the system user that ran the packager.
	Username string `yaml:"username"`
}

// DetectActor gathers host and user information for the manifest.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
