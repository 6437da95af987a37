package server

// FlowErrorKind classifies terminal login flow failures. Every kind is
// handled at the HTTP boundary and rendered as a page with a way back to
// the login prompt.
type FlowErrorKind string

const (
	ConfigurationError   FlowErrorKind = "configuration_error"
	MissingParameters    FlowErrorKind = "missing_parameters"
	InvalidState         FlowErrorKind = "invalid_state"
	AuthenticationFailed FlowErrorKind = "authentication_failed"
	Unauthorized         FlowErrorKind = "unauthorized"
)

// userMessage is what the failure page shows. No upstream detail leaks
// here; that stays in server logs.
func (k FlowErrorKind) userMessage() string {
	switch k {
	case ConfigurationError:
		return "Sign-in is not available right now. Please contact the administrator."
	case MissingParameters:
		return "The sign-in response was incomplete. Please try signing in again."
	case InvalidState:
		return "Your sign-in attempt could not be verified. Please start over."
	case AuthenticationFailed:
		return "Sign-in failed. Check your connection and try again."
	case Unauthorized:
		return "You need to sign in to continue."
	default:
		return "Something went wrong. Please try signing in again."
	}
}

func (k FlowErrorKind) title() string {
	switch k {
	case Unauthorized:
		return "Sign in required"
	default:
		return "Sign-in problem"
	}
}
