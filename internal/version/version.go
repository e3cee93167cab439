// Package version provides version information and build metadata for RoboClone.
//
// This module centralizes all version-related constants and provides formatted strings
// for consistent display across the application. To update the version, simply change
// the AppVersion constant - all other version strings follow it.
package version

// Application metadata constants.
//
// TO UPDATE THE VERSION: Change only AppVersion below.
const (
	// AppName is the official name of the application
	AppName = "RoboClone"

	// AppVersion follows semantic versioning (major.minor.patch)
	AppVersion = "1.2.0"

	// AppAuthor contains author information
	AppAuthor = "the RoboClone authors"

	// AppDesc is the tagline used in the interface and --version output
	AppDesc = "Mirror a folder with robocopy, then walk away"
)

// GetFullVersionString returns the application name with version for display.
// Example: "RoboClone v1.2.0"
func GetFullVersionString() string {
	return AppName + " v" + AppVersion
}

// GetAppTitle returns the complete application title including description.
// Used for the setup form title and the --version output.
func GetAppTitle() string {
	return AppName + " v" + AppVersion + " - " + AppDesc
}

// GetSubtitle returns a compact version and author string for screen headers.
// Example: "v1.2.0 by the RoboClone authors"
func GetSubtitle() string {
	return "v" + AppVersion + " by " + AppAuthor
}
