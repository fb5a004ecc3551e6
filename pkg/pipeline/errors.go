package pipeline

import (
	"errors"

	"github.com/gardar/gradeflow/pkg/grade"
	"github.com/gardar/gradeflow/pkg/gradebook"
	"github.com/gardar/gradeflow/pkg/pdfdoc"
	"github.com/gardar/gradeflow/pkg/roster"
	"github.com/gardar/gradeflow/pkg/split"
)

// UserError is a failure the user can fix by choosing different inputs. Msg
// is meant to be shown as is.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }

func (e *UserError) Unwrap() error { return e.Err }

var userMessages = []struct {
	err error
	msg string
}{
	{roster.ErrMissingColumns, "The roster file is missing required columns. Export the class list again with OrgDefinedId, Username, First Name, Last Name and Email."},
	{roster.ErrWrongClass, "Most submissions do not match the roster. Check that the submissions and the roster belong to the same class."},
	{pdfdoc.ErrNoDocuments, "No readable submission was found. Check that the right submissions folder was selected."},
	{grade.ErrNoFirstPages, "The selected PDF is not a combined document. Choose the combined PDF produced by the combine step."},
	{split.ErrWrongDocument, "No page of the selected PDF carries a student name. Choose the graded combined PDF."},
	{gradebook.ErrRosterLocked, "The roster file is open in another program. Close the file and retry."},
}

// asUserError wraps err in a UserError when it is one of the known wrong
// input conditions; other errors are returned unchanged.
func asUserError(err error) error {
	if err == nil {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return err
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return &UserError{Msg: m.msg, Err: err}
		}
	}
	return err
}
