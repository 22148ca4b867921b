package version

// Version is the current version of the empathy server
const Version = "1.0"

// UserAgent returns the User-Agent string for outbound HTTP requests
func UserAgent() string {
	return "EmpathyAI/" + Version
}

// ServerHeader returns the Server header value for HTTP responses
func ServerHeader() string {
	return "empathy/" + Version
}
