package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ironsheep/mls-photo-enhancer/internal/imaging"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Print dimensions, format and color layout of photos as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	var d imaging.Decoder
	for _, path := range args {
		up, err := imaging.ReadUpload(path)
		if err != nil {
			return err
		}
		info, err := d.Inspect(up.Data, up.Name)
		if err != nil {
			return err
		}
		if err := enc.Encode(struct {
			Path string `json:"path"`
			*imaging.ImageInfo
		}{up.Path, info}); err != nil {
			return err
		}
	}
	return nil
}
