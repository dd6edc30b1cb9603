package worthy

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ExportCSV writes the history of snapshot totals as CSV: one row per
// stored snapshot, (Timestamp, Total). Snapshots that fail to parse abort
// the export; history files are small and a silent hole in a net-worth
// history is worse than an error.
func ExportCSV(w io.Writer, snapshotTemplate string) error {
	paths, err := SnapshotPaths(snapshotTemplate)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "Total"}); err != nil {
		return err
	}
	for _, path := range paths {
		s, err := LoadSnapshot(path)
		if err != nil {
			return fmt.Errorf("error reading snapshot %q: %w", path, err)
		}
		if err := cw.Write([]string{s.Timestamp.Format(time.RFC3339), s.Total.Amount.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
