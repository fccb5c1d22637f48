package guard

// allowedChannels is the closed set of queryable channels. Matching is
// byte-exact: no trimming, case folding, or Unicode normalization is
// ever applied to the input, so any deviation is rejected rather than
// sanitized into a valid name.
var allowedChannels = []string{"Application", "System"}

// ValidateChannel accepts only an exact match against the allowlist.
func ValidateChannel(input string) (string, error) {
	for _, c := range allowedChannels {
		if input == c {
			return c, nil
		}
	}
	return "", &ChannelRejectedError{Input: input, Allowed: AllowedChannels()}
}

// IsAllowedChannel reports whether input is an allowed channel, for
// call sites that branch instead of handling an error.
func IsAllowedChannel(input string) bool {
	_, err := ValidateChannel(input)
	return err == nil
}

// AllowedChannels returns the allowlist in its fixed order. The slice
// is a copy; mutating it does not affect validation.
func AllowedChannels() []string {
	out := make([]string, len(allowedChannels))
	copy(out, allowedChannels)
	return out
}
