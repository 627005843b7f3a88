package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanline-ai/shieldrev/internal/config"
	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check <case-file>",
	Short: "Evaluate shield/zone conflicts in a case file (non-interactive)",
	Long: `Evaluate the shields in a case file against its document zones and
output a conflict report. Needs no backend; useful for CI and for
auditing exported shield sets.

The case file is JSON with the shape the resolver returns:
  {"caseId": "...", "shields": [...], "zones": [...]}

Pass "-" to read the case file from stdin.

Exit codes:
  0 — clean, no conflicts
  1 — warnings found
  2 — blocking conflicts found (critical zone coverage)`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	checkCmd.Flags().StringP("config", "c", "", "path to config file")
}

// caseFile is the resolver's case shape, read from disk.
type caseFile struct {
	CaseID  string         `json:"caseId"`
	Shields []model.Shield `json:"shields"`
	Zones   []model.Zone   `json:"zones"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	raw, err := readCaseFile(args[0])
	if err != nil {
		return err
	}

	var cf caseFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("parsing case file: %w", err)
	}

	th := geometry.Thresholds{Warn: cfg.Thresholds.Warn, Critical: cfg.Thresholds.Critical}
	conflicts := geometry.EvaluateConflicts(cf.Shields, cf.Zones, th)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		err = checkOutputJSON(cf, conflicts)
	default:
		err = checkOutputText(cf, conflicts)
	}
	if err != nil {
		return err
	}

	// Set exit code
	if hasBlocking(conflicts) {
		os.Exit(2)
	} else if len(conflicts) > 0 {
		os.Exit(1)
	}
	return nil
}

func readCaseFile(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	return data, nil
}

func hasBlocking(conflicts []model.ZoneConflict) bool {
	for _, c := range conflicts {
		if c.Blocking {
			return true
		}
	}
	return false
}

func checkOutputText(cf caseFile, conflicts []model.ZoneConflict) error {
	fmt.Printf("case %s: %d shield(s), %d zone(s)\n\n", cf.CaseID, len(cf.Shields), len(cf.Zones))

	if len(conflicts) == 0 {
		fmt.Println("No conflicts found.")
		return nil
	}

	for _, sh := range cf.Shields {
		shieldConflicts := conflictsFor(sh.ID, conflicts)
		if len(shieldConflicts) == 0 {
			continue
		}
		fmt.Printf("  %s (%s)\n", sh.ID, sh.Type)
		for _, c := range shieldConflicts {
			icon := "* "
			if c.Blocking {
				icon = "!!"
			}
			fmt.Printf("    %s zone %s: %.0f%% overlap — %s\n", icon, c.ZoneID, c.OverlapRatio*100, c.ActionTaken)
		}
		fmt.Println()
	}

	return nil
}

func checkOutputJSON(cf caseFile, conflicts []model.ZoneConflict) error {
	type jsonOutput struct {
		CaseID    string               `json:"caseId"`
		Shields   int                  `json:"shields"`
		Zones     int                  `json:"zones"`
		Blocking  bool                 `json:"blocking"`
		Conflicts []model.ZoneConflict `json:"conflicts"`
	}

	out := jsonOutput{
		CaseID:    cf.CaseID,
		Shields:   len(cf.Shields),
		Zones:     len(cf.Zones),
		Blocking:  hasBlocking(conflicts),
		Conflicts: conflicts,
	}
	if out.Conflicts == nil {
		out.Conflicts = []model.ZoneConflict{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func conflictsFor(id string, conflicts []model.ZoneConflict) []model.ZoneConflict {
	var out []model.ZoneConflict
	for _, c := range conflicts {
		if c.ShieldID == id {
			out = append(out, c)
		}
	}
	return out
}
