package submission

import (
	"fmt"
	"os"
	"path/filepath"
)

// Move relocates one unreadable submission folder.
type Move struct {
	Student string
	From    string
	To      string
}

// Plan is the list of moves decided by PlanQuarantine. Nothing touches the
// filesystem until Apply is called.
type Plan struct {
	Moves []Move
}

// PlanQuarantine splits submissions into readable ones and a plan moving the
// rest (no document files) under quarantineDir. A relative quarantineDir is
// resolved against each submission's parent directory.
func PlanQuarantine(subs []Submission, quarantineDir string) ([]Submission, Plan) {
	var keep []Submission
	var plan Plan
	for _, s := range subs {
		if len(s.Files) > 0 {
			keep = append(keep, s)
			continue
		}
		dir := quarantineDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(s.FolderPath), dir)
		}
		plan.Moves = append(plan.Moves, Move{
			Student: s.StudentNameRaw,
			From:    s.FolderPath,
			To:      filepath.Join(dir, filepath.Base(s.FolderPath)),
		})
	}
	return keep, plan
}

// Students lists the student names affected by the plan.
func (p Plan) Students() []string {
	names := make([]string, 0, len(p.Moves))
	for _, m := range p.Moves {
		names = append(names, m.Student)
	}
	return names
}

// Apply performs the moves. It stops at the first failure and reports how
// many moves completed.
func (p Plan) Apply() (int, error) {
	for i, m := range p.Moves {
		if err := os.MkdirAll(filepath.Dir(m.To), 0o755); err != nil {
			return i, fmt.Errorf("create quarantine dir: %w", err)
		}
		if err := os.Rename(m.From, m.To); err != nil {
			return i, fmt.Errorf("quarantine %s: %w", m.From, err)
		}
	}
	return len(p.Moves), nil
}
