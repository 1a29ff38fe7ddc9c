package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/ngoduykhanh/usermgr/auth"
	"github.com/ngoduykhanh/usermgr/emailer"
	"github.com/ngoduykhanh/usermgr/handler"
	"github.com/ngoduykhanh/usermgr/router"
	"github.com/ngoduykhanh/usermgr/store"
	"github.com/ngoduykhanh/usermgr/store/jsondb"
	"github.com/ngoduykhanh/usermgr/store/mysqldb"
	"github.com/ngoduykhanh/usermgr/util"
)

var (
	// command-line banner information
	appVersion = "development"
	gitCommit  = "N/A"
	buildTime  = time.Now().UTC().Format("01-02-2006 15:04:05")
)

// configuration variables
var (
	flagBindAddress    = util.DefaultBindAddress
	flagBasePath       = util.DefaultBasePath
	flagLogLevel       = "INFO"
	flagDBType         = util.DefaultDBType
	flagDBPath         = util.DefaultDBPath
	flagMysqlHost      = "127.0.0.1"
	flagMysqlPort      = util.DefaultMysqlPort
	flagMysqlUser      = "root"
	flagMysqlPassword  string
	flagMysqlDatabase  = "usermgr"
	flagMysqlTLS       = "false"
	flagJwtSecret      string
	flagTokenTTL       = util.DefaultTokenTTL
	flagSecureCookie   = true
	flagCorsOrigins    string
	flagBcryptCost     = util.DefaultBcryptCost
	flagAdminUsername  = util.DefaultAdminUsername
	flagAdminEmail     = util.DefaultAdminEmail
	flagAdminPassword  = util.DefaultAdminPassword
	flagSendgridApiKey string
	flagSmtpHostname   string
	flagSmtpPort       = util.DefaultSmtpPort
	flagSmtpUsername   string
	flagSmtpPassword   string
	flagSmtpAuthType   = "NONE"
	flagSmtpEncryption = "STARTTLS"
	flagSmtpNoTLSCheck bool
	flagEmailFrom      string
	flagEmailFromName  = util.DefaultEmailFromName
)

func init() {
	// command-line flags and env variables
	flag.StringVar(&flagBindAddress, "bind-address", util.LookupEnvOrString(util.BindAddressEnvVar, flagBindAddress), "Address:Port to which the app will be bound.")
	flag.StringVar(&flagBasePath, "base-path", util.LookupEnvOrString(util.BasePathEnvVar, flagBasePath), "The base path the api is served under.")
	flag.StringVar(&flagLogLevel, "log-level", util.LookupEnvOrString(util.LogLevelEnvVar, flagLogLevel), "DEBUG, INFO, WARN, ERROR or OFF.")
	flag.StringVar(&flagDBType, "db-type", util.LookupEnvOrString(util.DBTypeEnvVar, flagDBType), "User store backend: jsondb or mysql.")
	flag.StringVar(&flagDBPath, "db-path", util.LookupEnvOrString(util.DBPathEnvVar, flagDBPath), "Directory of the jsondb store.")
	flag.StringVar(&flagMysqlHost, "mysql-host", util.LookupEnvOrString(util.MysqlHostEnvVar, flagMysqlHost), "MySQL host.")
	flag.IntVar(&flagMysqlPort, "mysql-port", util.LookupEnvOrInt(util.MysqlPortEnvVar, flagMysqlPort), "MySQL port.")
	flag.StringVar(&flagMysqlUser, "mysql-user", util.LookupEnvOrString(util.MysqlUserEnvVar, flagMysqlUser), "MySQL user.")
	flag.StringVar(&flagMysqlPassword, "mysql-password", util.LookupEnvOrString(util.MysqlPasswordEnvVar, flagMysqlPassword), "MySQL password.")
	flag.StringVar(&flagMysqlDatabase, "mysql-database", util.LookupEnvOrString(util.MysqlDatabaseEnvVar, flagMysqlDatabase), "MySQL database name.")
	flag.StringVar(&flagMysqlTLS, "mysql-tls", util.LookupEnvOrString(util.MysqlTLSEnvVar, flagMysqlTLS), "MySQL TLS mode.")
	flag.StringVar(&flagJwtSecret, "jwt-secret", util.LookupEnvOrString(util.JwtSecretEnvVar, flagJwtSecret), "The key used to sign session tokens.")
	flag.DurationVar(&flagTokenTTL, "token-ttl", util.LookupEnvOrDuration(util.TokenTTLEnvVar, flagTokenTTL), "Lifetime of session tokens and cookies.")
	flag.BoolVar(&flagSecureCookie, "secure-cookie", util.LookupEnvOrBool(util.SecureCookieEnvVar, flagSecureCookie), "Only send the session cookie over https.")
	flag.StringVar(&flagCorsOrigins, "cors-origins", util.LookupEnvOrString(util.CorsOriginsEnvVar, flagCorsOrigins), "Comma separated origins allowed to call the api with credentials.")
	flag.IntVar(&flagBcryptCost, "bcrypt-cost", util.LookupEnvOrInt(util.BcryptCostEnvVar, flagBcryptCost), "bcrypt work factor for password hashes.")
	flag.StringVar(&flagAdminUsername, "admin-username", util.LookupEnvOrString(util.AdminUsernameEnvVar, flagAdminUsername), "Username of the bootstrap admin.")
	flag.StringVar(&flagAdminEmail, "admin-email", util.LookupEnvOrString(util.AdminEmailEnvVar, flagAdminEmail), "Email of the bootstrap admin.")
	flag.StringVar(&flagAdminPassword, "admin-password", util.LookupEnvOrString(util.AdminPasswordEnvVar, flagAdminPassword), "Password of the bootstrap admin.")
	flag.StringVar(&flagSendgridApiKey, "sendgrid-api-key", util.LookupEnvOrString(util.SendgridApiKeyEnvVar, flagSendgridApiKey), "Your sendgrid api key.")
	flag.StringVar(&flagSmtpHostname, "smtp-hostname", util.LookupEnvOrString(util.SmtpHostnameEnvVar, flagSmtpHostname), "SMTP hostname.")
	flag.IntVar(&flagSmtpPort, "smtp-port", util.LookupEnvOrInt(util.SmtpPortEnvVar, flagSmtpPort), "SMTP port.")
	flag.StringVar(&flagSmtpUsername, "smtp-username", util.LookupEnvOrString(util.SmtpUsernameEnvVar, flagSmtpUsername), "SMTP username.")
	flag.StringVar(&flagSmtpPassword, "smtp-password", util.LookupEnvOrString(util.SmtpPasswordEnvVar, flagSmtpPassword), "SMTP password.")
	flag.StringVar(&flagSmtpAuthType, "smtp-auth-type", util.LookupEnvOrString(util.SmtpAuthTypeEnvVar, flagSmtpAuthType), "SMTP auth type: PLAIN, LOGIN or NONE.")
	flag.StringVar(&flagSmtpEncryption, "smtp-encryption", util.LookupEnvOrString(util.SmtpEncryptionEnvVar, flagSmtpEncryption), "NONE, SSL, SSLTLS, TLS or STARTTLS.")
	flag.BoolVar(&flagSmtpNoTLSCheck, "smtp-no-tls-check", util.LookupEnvOrBool(util.SmtpNoTLSCheckEnvVar, flagSmtpNoTLSCheck), "Disable TLS verification for SMTP.")
	flag.StringVar(&flagEmailFrom, "email-from", util.LookupEnvOrString(util.EmailFromEnvVar, flagEmailFrom), "'From' email address.")
	flag.StringVar(&flagEmailFromName, "email-from-name", util.LookupEnvOrString(util.EmailFromNameEnvVar, flagEmailFromName), "'From' email name.")
	flag.Parse()

	util.BcryptCost = flagBcryptCost

	// print app information
	fmt.Println("User Manager")
	fmt.Println("App Version\t:", appVersion)
	fmt.Println("Git Commit\t:", gitCommit)
	fmt.Println("Build Time\t:", buildTime)
	fmt.Println("Bind address\t:", flagBindAddress)
	fmt.Println("Base path\t:", flagBasePath)
	fmt.Println("Database\t:", flagDBType)
	fmt.Println("Secure cookie\t:", flagSecureCookie)
	fmt.Println("Email from\t:", flagEmailFrom)
}

func main() {
	lvl, err := util.ParseLogLevel(flagLogLevel)
	if err != nil {
		log.Fatal(err)
	}

	tokens, err := auth.NewTokenService([]byte(flagJwtSecret), flagTokenTTL)
	if err != nil {
		log.Fatalf("Cannot create token service (set %s): %v", util.JwtSecretEnvVar, err)
	}

	db, err := openStore()
	if err != nil {
		log.Fatal("Cannot open database: ", err)
	}

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		log.Fatal("Cannot init database: ", err)
	}
	if _, err := store.SeedAdmin(ctx, db, flagAdminUsername, flagAdminEmail, flagAdminPassword); err != nil {
		log.Fatal("Cannot seed admin user: ", err)
	}

	// register routes
	app := router.New(lvl, util.SplitList(flagCorsOrigins))
	sessions := handler.NewSessions(tokens, flagBasePath, flagSecureCookie)
	handler.RegisterRoutes(app.Group(flagBasePath), db, sessions, newMailer(), util.DefaultWelcomeSubject)

	app.Logger.Fatal(app.Start(flagBindAddress))
}

func openStore() (store.IStore, error) {
	switch flagDBType {
	case "jsondb":
		db, err := jsondb.New(flagDBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "mysql":
		db, err := mysqldb.New(flagMysqlUser, flagMysqlPassword, flagMysqlHost, flagMysqlPort, flagMysqlDatabase, flagMysqlTLS)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", flagDBType)
	}
}

// newMailer picks sendgrid over smtp, nil when neither is configured
func newMailer() emailer.Emailer {
	switch {
	case flagSendgridApiKey != "":
		return emailer.NewSendgridApiMail(flagSendgridApiKey, flagEmailFromName, flagEmailFrom)
	case flagSmtpHostname != "":
		return emailer.NewSmtpMail(flagSmtpHostname, flagSmtpPort, flagSmtpUsername, flagSmtpPassword, flagSmtpNoTLSCheck, flagSmtpAuthType, flagEmailFromName, flagEmailFrom, flagSmtpEncryption)
	default:
		log.Info("No mail transport configured, welcome emails are disabled")
		return nil
	}
}
