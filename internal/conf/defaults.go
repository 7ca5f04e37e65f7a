// defaults.go default values for viper settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig registers the default value of every setting with viper.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Database output
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "learnlog.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "learnlog")
	viper.SetDefault("output.mysql.password", "learnlog")
	viper.SetDefault("output.mysql.database", "learnlog")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Migration tuning
	viper.SetDefault("migration.pagesize", 750)
	viper.SetDefault("migration.logpath", "logs/migration.log")
}
