// chatctl is the operational companion to the chat data layer: it
// ensures the MongoDB indexes exist and runs the streak expiry sweep on
// behalf of an external scheduler.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/vybechat/backend/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Operational tooling for the chat data layer",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			jww.SetStdoutThreshold(jww.LevelDebug)
		} else {
			jww.SetStdoutThreshold(jww.LevelInfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("mongodb-uri", "",
		"MongoDB connection URI (defaults to $MONGODB_URI)")
	rootCmd.PersistentFlags().String("database", db.DefaultDatabase,
		"database name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"enable debug logging")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		jww.FATAL.Panicf("%+v", err)
	}

	// Flags are overridable via CHATCTL_MONGODB_URI and friends.
	viper.SetEnvPrefix("chatctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// openDB connects to MongoDB using the configured URI.
func openDB(ctx context.Context) (*db.Client, error) {
	uri := viper.GetString("mongodb-uri")
	if uri == "" {
		uri = os.Getenv("MONGODB_URI")
	}
	return db.New(ctx, uri, viper.GetString("database"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("%+v", err)
		os.Exit(1)
	}
}
