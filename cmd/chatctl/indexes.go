package main

import (
	"context"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the secondary indexes used by the stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close(ctx) }()

		if err := client.CreateIndexes(ctx); err != nil {
			return err
		}

		jww.INFO.Printf("indexes created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
