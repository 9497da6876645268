// internal/config/fields.go
//
// The WordPress field table.  Order here is the order issues are reported
// in, so keep connection settings first and the debug switches last.

package config

// Placeholder is the stock wp-config-sample.php value for keys and salts.
const Placeholder = "put your unique phrase here"

// MinSecretLength is the production floor for a key or salt.
const MinSecretLength = 32

// EnvPrefix is shared by every WordPress variable.
const EnvPrefix = "WORDPRESS_"

// ModeEnvVar selects Production or Development.
const ModeEnvVar = "APP_ENV"

// SecretNames lists the eight keys and salts in wp-config order.
var SecretNames = []string{
	"AUTH_KEY",
	"SECURE_AUTH_KEY",
	"LOGGED_IN_KEY",
	"NONCE_KEY",
	"AUTH_SALT",
	"SECURE_AUTH_SALT",
	"LOGGED_IN_SALT",
	"NONCE_SALT",
}

func str(s string) *string { return &s }

// WordPressFields returns a fresh copy of the standard field table.
func WordPressFields() []FieldSpec {
	specs := []FieldSpec{
		{Name: "DB_NAME", EnvVar: EnvPrefix + "DB_NAME", Default: str("wordpress"), Required: true, Kind: KindDatabaseName},
		{Name: "DB_USER", EnvVar: EnvPrefix + "DB_USER", Default: str("wpuser"), Required: true, Kind: KindCredential},
		{Name: "DB_PASSWORD", EnvVar: EnvPrefix + "DB_PASSWORD", Default: str("wppass"), Required: true, Kind: KindCredential},
		{Name: "DB_HOST", EnvVar: EnvPrefix + "DB_HOST", Default: str("mysql:3306"), Required: true, Kind: KindHostPort},
		{Name: "DB_CHARSET", EnvVar: EnvPrefix + "DB_CHARSET", Default: str("utf8mb4"), Required: true, Kind: KindCharset},
		{Name: "DB_COLLATE", EnvVar: EnvPrefix + "DB_COLLATE", Default: str(""), Kind: KindCollation},
		{Name: "TABLE_PREFIX", EnvVar: EnvPrefix + "TABLE_PREFIX", Default: str("wp_"), Required: true, Kind: KindTablePrefix},
	}
	for _, n := range SecretNames {
		specs = append(specs, FieldSpec{
			Name:     n,
			EnvVar:   EnvPrefix + n,
			Default:  str(Placeholder),
			Required: true,
			Kind:     KindSecret,
		})
	}
	specs = append(specs,
		FieldSpec{Name: "WP_DEBUG", EnvVar: EnvPrefix + "DEBUG", Default: str("false"), Kind: KindFlag},
		FieldSpec{Name: "WP_DEBUG_LOG", EnvVar: EnvPrefix + "DEBUG_LOG", Default: str("false"), Kind: KindFlag},
		FieldSpec{Name: "WP_DEBUG_DISPLAY", EnvVar: EnvPrefix + "DEBUG_DISPLAY", Default: str("false"), Kind: KindFlag},
	)
	return specs
}
