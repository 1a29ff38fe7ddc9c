package util

import "time"

// Runtime config
var (
	// BcryptCost is the work factor used by HashPassword.
	BcryptCost = DefaultBcryptCost
)

const (
	DefaultBindAddress    = "0.0.0.0:5000"
	DefaultBasePath       = "/api"
	DefaultDBType         = "jsondb"
	DefaultDBPath         = "./db"
	DefaultTokenTTL       = 30 * 24 * time.Hour
	DefaultBcryptCost     = 12
	DefaultAdminUsername  = "admin"
	DefaultAdminEmail     = "admin@example.com"
	DefaultAdminPassword  = "admin"
	DefaultMysqlPort      = 3306
	DefaultSmtpPort       = 587
	DefaultEmailFromName  = "User Manager"
	DefaultWelcomeSubject = "Your account has been created"
)

const (
	BindAddressEnvVar    = "BIND_ADDRESS"
	BasePathEnvVar       = "BASE_PATH"
	LogLevelEnvVar       = "LOG_LEVEL"
	DBTypeEnvVar         = "DB_TYPE"
	DBPathEnvVar         = "DB_PATH"
	MysqlHostEnvVar      = "MYSQL_HOST"
	MysqlPortEnvVar      = "MYSQL_PORT"
	MysqlUserEnvVar      = "MYSQL_USER"
	MysqlPasswordEnvVar  = "MYSQL_PASSWORD"
	MysqlDatabaseEnvVar  = "MYSQL_DATABASE"
	MysqlTLSEnvVar       = "MYSQL_TLS"
	JwtSecretEnvVar      = "JWT_SECRET"
	TokenTTLEnvVar       = "TOKEN_TTL"
	SecureCookieEnvVar   = "SECURE_COOKIE"
	CorsOriginsEnvVar    = "CORS_ORIGINS"
	BcryptCostEnvVar     = "BCRYPT_COST"
	AdminUsernameEnvVar  = "ADMIN_USERNAME"
	AdminEmailEnvVar     = "ADMIN_EMAIL"
	AdminPasswordEnvVar  = "ADMIN_PASSWORD"
	SendgridApiKeyEnvVar = "SENDGRID_API_KEY"
	SmtpHostnameEnvVar   = "SMTP_HOSTNAME"
	SmtpPortEnvVar       = "SMTP_PORT"
	SmtpUsernameEnvVar   = "SMTP_USERNAME"
	SmtpPasswordEnvVar   = "SMTP_PASSWORD"
	SmtpAuthTypeEnvVar   = "SMTP_AUTH_TYPE"
	SmtpEncryptionEnvVar = "SMTP_ENCRYPTION"
	SmtpNoTLSCheckEnvVar = "SMTP_NO_TLS_CHECK"
	EmailFromEnvVar      = "EMAIL_FROM_ADDRESS"
	EmailFromNameEnvVar  = "EMAIL_FROM_NAME"
)
