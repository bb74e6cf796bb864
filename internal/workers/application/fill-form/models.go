// internal/workers/application/fill-form/models.go
package fillform

// Output counts what one pass over the visible form step did.
type Output struct {
	Labels  int `json:"labels"`
	Matched int `json:"matched"`
	Filled  int `json:"filled"`
	Failed  int `json:"failed"`
}

// Action is what the field policy did with one control.
type Action string

const (
	ActionTyped    Action = "typed"
	ActionClicked  Action = "clicked"
	ActionSelected Action = "selected"
	ActionSkipped  Action = "skipped"
)

// Control kinds the policy knows about.
const (
	KindInput    = "input"
	KindSelect   = "select"
	KindTextarea = "textarea"
)

var textInputTypes = map[string]bool{
	"":      true,
	"text":  true,
	"email": true,
	"tel":   true,
}

const affirmative = "yes"
