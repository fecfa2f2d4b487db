package config

// Redacted returns a copy of the Config with secret material masked, safe
// for logging at startup.
func (c Config) Redacted() Config {
	out := c
	out.Postgres.Password = mask(c.Postgres.Password)
	out.Postgres.DSN = mask(c.Postgres.DSN)
	out.Redis.Password = mask(c.Redis.Password)
	out.S3.SecretKey = mask(c.S3.SecretKey)
	out.Server.APIKey = mask(c.Server.APIKey)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
