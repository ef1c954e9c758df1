package app

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/permission"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(matrixCmd)
}

// matrixCmd needs no configuration: the catalog and the matrix are compiled in.
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the permission catalog and the role permission matrix as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			Catalog []permission.Module `json:"catalogo"`
			Matrix  []permission.Role   `json:"matriz"`
		}{
			Catalog: permission.Catalog(),
			Matrix:  permission.Matrix(),
		})
	},
}
