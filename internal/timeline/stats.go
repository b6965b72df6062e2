package timeline

import (
	"hookcode/internal/diff"
	"hookcode/internal/model"
)

// Stats aggregates a timeline for list and info views.
type Stats struct {
	Items             int `json:"items"`
	Commands          int `json:"commands"`
	CommandsCompleted int `json:"commandsCompleted"`
	CommandsFailed    int `json:"commandsFailed"`
	FileChanges       int `json:"fileChanges"`
	Messages          int `json:"messages"`
	Diffs             int `json:"diffs"`
	Additions         int `json:"additions"`
	Deletions         int `json:"deletions"`
}

// Stats counts items per kind and sums the line changes of every file diff.
// A command that exited non-zero counts as failed.
func (t Timeline) Stats() Stats {
	s := Stats{Items: len(t.items)}
	for _, item := range t.items {
		switch it := item.(type) {
		case model.CommandExecution:
			s.Commands++
			switch {
			case it.Status == model.ItemStatusFailed, it.ExitCode != nil && *it.ExitCode != 0:
				s.CommandsFailed++
			case it.Status == model.ItemStatusCompleted:
				s.CommandsCompleted++
			}
		case model.FileChange:
			s.FileChanges++
			s.Diffs += len(it.Diffs)
			for _, d := range it.Diffs {
				counts, err := diff.StatsForFile(d)
				if err != nil {
					continue
				}
				s.Additions += counts.Additions
				s.Deletions += counts.Deletions
			}
		case model.AgentMessage:
			s.Messages++
		}
	}
	return s
}
