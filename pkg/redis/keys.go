package redis

// Key layout shared by the auth service and the identity middleware.

func SessionKey(sessionID string) string { return "session:" + sessionID }

func ResetCodeKey(email string) string { return "pwreset:" + email }

func ResetAttemptsKey(email string) string { return "pwreset_attempts:" + email }

func LoginFailuresKey(email string) string { return "login_failures:" + email }

func LoginLockKey(email string) string { return "login_lock:" + email }
