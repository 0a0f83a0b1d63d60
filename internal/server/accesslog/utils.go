package accesslog

// sanitizeUsername converts a username to a filesystem-safe directory name
func sanitizeUsername(user string) string {
	result := make([]byte, 0, len(user))
	for i := 0; i < len(user); i++ {
		c := user[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '@' || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return anonymousUser
	}
	return string(result)
}
