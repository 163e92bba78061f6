package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"internboard/internal/engine"
	"internboard/internal/models"
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	var (
		spec   models.FilterSpec
		topK   int
		indent bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load the dataset once and print the dashboard as JSON",
		Example: `  internboard inspect --data postings.csv -q admin --province "Jawa Tengah"
  internboard inspect --field Manajemen --field Akuntansi --top-k 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, v)
			if err != nil {
				return err
			}
			if topK <= 0 {
				topK = cfg.Dashboard.TopK
			}

			ds, err := engine.Load(cmd.Context(), cfg.Source(), cfg.EngineSchema(), logger)
			if err != nil {
				return err
			}
			data, err := engine.BuildDashboard(ds, spec, topK)
			if err != nil {
				return err
			}

			var out []byte
			if indent {
				out, err = json.MarshalIndent(data, "", "  ")
			} else {
				out, err = json.Marshal(data)
			}
			if err != nil {
				return err
			}
			out = append(out, '\n')
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&spec.Position, "query", "q", "", "case-insensitive position substring")
	f.StringArrayVar(&spec.Provinces, "province", nil, "province to keep (repeatable)")
	f.StringArrayVar(&spec.Cities, "city", nil, "city to keep (repeatable)")
	f.StringArrayVar(&spec.Fields, "field", nil, "field of study to match (repeatable)")
	f.IntVar(&topK, "top-k", 0, "number of top fields (default: dashboard.top_k)")
	f.BoolVar(&indent, "indent", true, "pretty-print the output")
	return cmd
}
