package intent

import (
	"fmt"
	"strings"
)

// MalformedIntentError reports a recognized action missing required fields.
type MalformedIntentError struct {
	Action  Action
	Missing []string
}

func (e *MalformedIntentError) Error() string {
	return fmt.Sprintf("malformed %s intent: missing %s", e.Action, strings.Join(e.Missing, ", "))
}

// Validate checks that in carries the payload its action requires.
func Validate(in Intent) error {
	var missing []string

	switch in := in.(type) {
	case CreateTransaction:
		if strings.TrimSpace(in.Description) == "" {
			missing = append(missing, "description")
		}
		if in.Amount == nil {
			missing = append(missing, "amount")
		}
		if !in.Type.Valid() {
			missing = append(missing, "type")
		}
	case CreateCategory:
		if strings.TrimSpace(in.Name) == "" {
			missing = append(missing, "name")
		}
	}

	if len(missing) > 0 {
		return &MalformedIntentError{Action: in.Action(), Missing: missing}
	}
	return nil
}
