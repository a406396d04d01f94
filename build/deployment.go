package build

// DeploymentType selects the set of logging options compiled into a binary.
type DeploymentType byte

const (
	// Development builds can log straight to stderr through the stdlog
	// build tag, which the unit tests use.
	Development DeploymentType = iota

	// Production builds only log through the backend of the program.
	Production
)

// String returns a human readable name for a build type.
func (b DeploymentType) String() string {
	switch b {
	case Development:
		return "development"
	case Production:
		return "production"
	}

	return "unknown"
}

// IsProdBuild returns true if this is a production build.
func IsProdBuild() bool {
	return Deployment == Production
}
