// tools_cmd.go
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/processor"
)

func newLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the geospatial overlay layers in GEODATA_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			layers, err := extractors.NewLayerCatalog(cfg.GeoDataPath, logger).List()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), layers)
		},
	}
}

func newKeygenCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random hex key for OBEYA_CACHE_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size != 16 && size != 24 && size != 32 {
				return fmt.Errorf("invalid --size %d, expected 16, 24 or 32", size)
			}
			key, err := processor.GenerateRandomAESKey(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 32, "Key size in bytes: 16, 24 or 32")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
